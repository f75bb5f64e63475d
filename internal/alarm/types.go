// Package alarm defines the canonical alarm state change record and parses
// the inbound transport shapes into it.
package alarm

import (
	"fmt"
	"strings"
	"time"
)

// State is a CloudWatch alarm state value.
type State string

const (
	StateOK               State = "OK"
	StateAlarm            State = "ALARM"
	StateInsufficientData State = "INSUFFICIENT_DATA"
)

// Transport identifies the inbound delivery path of a record.
type Transport string

const (
	TransportEventBridge Transport = "EVENTBRIDGE"
	TransportSNS         Transport = "SNS"
)

// Priority ranks how urgently an alarm should be investigated.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority parses a priority value, ignoring case.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority: %q", s)
	}
}

// Alarm is the canonical state change record shared by every downstream
// stage. Both transport shapes normalize into it.
type Alarm struct {
	Name          string
	ARN           string
	Description   string
	State         State
	PreviousState State
	Reason        string
	Namespace     string
	MetricName    string
	Dimensions    map[string]string
	Statistic     string
	Period        int32
	Threshold     float64
	Timestamp     time.Time
	Region        string
	AccountID     string
	Transport     Transport
}

// ServiceType maps the metric namespace to a coarse service family.
func (a *Alarm) ServiceType() string {
	switch a.Namespace {
	case "AWS/ECS", "ECS/ContainerInsights":
		return "ECS"
	case "AWS/RDS":
		return "RDS"
	case "AWS/DynamoDB":
		return "DynamoDB"
	case "AWS/ApplicationELB":
		return "ALB"
	case "AWS/NATGateway":
		return "NAT Gateway"
	case "AWS/Lambda":
		return "Lambda"
	case "":
		return "Unknown"
	default:
		return strings.TrimPrefix(a.Namespace, "AWS/")
	}
}
