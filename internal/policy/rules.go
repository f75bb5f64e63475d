package policy

import (
	"strings"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
)

type priorityRule struct {
	namespaces []string
	metrics    []string
	priority   alarm.Priority
}

// Matching is case-insensitive substring containment against namespace and
// metric name. First match wins; rules with no metrics match on namespace
// alone.
var priorityRules = []priorityRule{
	{namespaces: []string{"rds"}, metrics: []string{"cpu"}, priority: alarm.PriorityHigh},
	{namespaces: []string{"dynamodb"}, metrics: []string{"error"}, priority: alarm.PriorityHigh},
	{namespaces: []string{"elb"}, metrics: []string{"4xx"}, priority: alarm.PriorityHigh},
	{namespaces: []string{"lambda"}, metrics: []string{"error"}, priority: alarm.PriorityHigh},
	{namespaces: []string{"ecs", "containerinsights"}, metrics: []string{"cpu", "memory"}, priority: alarm.PriorityMedium},
	{namespaces: []string{"elb"}, metrics: []string{"5xx", "gateway"}, priority: alarm.PriorityMedium},
	{namespaces: []string{"natgateway"}, priority: alarm.PriorityMedium},
}

func matchPriorityRule(namespace, metricName string) (alarm.Priority, bool) {
	ns := strings.ToLower(namespace)
	metric := strings.ToLower(metricName)

	for _, rule := range priorityRules {
		if !containsAny(ns, rule.namespaces) {
			continue
		}
		if len(rule.metrics) > 0 && !containsAny(metric, rule.metrics) {
			continue
		}
		return rule.priority, true
	}

	return "", false
}

type serviceKeywordRule struct {
	keywords []string
	service  string
}

// Checked in order against the lowercased alarm name.
var serviceKeywordRules = []serviceKeywordRule{
	{keywords: []string{"rds", "aurora", "database"}, service: "Database"},
	{keywords: []string{"dynamo"}, service: "DynamoDB"},
	{keywords: []string{"lambda", "function"}, service: "Lambda"},
	{keywords: []string{"ecs", "fargate", "container"}, service: "ECS"},
	{keywords: []string{"alb", "elb", "load-balancer"}, service: "LoadBalancer"},
	{keywords: []string{"api-gateway", "apigw"}, service: "APIGateway"},
	{keywords: []string{"nat"}, service: "NATGateway"},
	{keywords: []string{"sqs", "queue"}, service: "SQS"},
	{keywords: []string{"redis", "cache"}, service: "Cache"},
}

// Dimension names that identify the affected service, most specific first.
var serviceDimensions = []string{
	"ServiceName",
	"ClusterName",
	"DBClusterIdentifier",
	"DBInstanceIdentifier",
	"TableName",
	"FunctionName",
	"QueueName",
	"LoadBalancer",
}

// resolveServiceName picks the service name for routing: an explicit tag
// wins, then alarm name keywords, then identifying dimensions.
func resolveServiceName(a *alarm.Alarm, tags map[string]string) string {
	if service := tags[tagService]; service != "" {
		return service
	}

	name := strings.ToLower(a.Name)
	for _, rule := range serviceKeywordRules {
		if containsAny(name, rule.keywords) {
			return rule.service
		}
	}

	for _, dim := range serviceDimensions {
		value := a.Dimensions[dim]
		if value == "" {
			continue
		}
		if dim == "LoadBalancer" {
			// Load balancer dimensions look like app/my-alb/50dc6c495c0c9188.
			parts := strings.Split(value, "/")
			return parts[len(parts)-1]
		}
		return value
	}

	return serviceUnknown
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
