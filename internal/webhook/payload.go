// Package webhook builds, signs, and delivers investigation requests to the
// incident-response endpoint.
package webhook

import (
	"fmt"
	"strings"
	"time"

	"github.com/ab0utbla-k/devops-agent-webhook/internal/alarm"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/config"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/metrics"
	"github.com/ab0utbla-k/devops-agent-webhook/internal/policy"
)

const (
	eventTypeIncident = "incident"
	actionCreated     = "created"

	pipelineVersion = "2.0"

	maxDescribedSamples = 5
)

// Payload is the request body delivered to the incident webhook.
type Payload struct {
	EventType             string         `json:"eventType"`
	IncidentID            string         `json:"incidentId"`
	Action                string         `json:"action"`
	Priority              alarm.Priority `json:"priority"`
	Title                 string         `json:"title"`
	ServiceName           string         `json:"serviceName"`
	AlarmName             string         `json:"alarmName"`
	StateReason           string         `json:"stateReason"`
	Description           string         `json:"description"`
	DeploymentName        string         `json:"deploymentName"`
	DeploymentDescription string         `json:"deploymentDescription"`
	Timestamp             string         `json:"timestamp"`
	Data                  PayloadData    `json:"data"`
}

type PayloadData struct {
	Metadata Metadata `json:"metadata"`
}

// Metadata mirrors the receiving agent's wire schema, hence the snake_case.
type Metadata struct {
	PipelineVersion  string            `json:"pipeline_version"`
	Transport        string            `json:"transport"`
	Region           string            `json:"region"`
	AccountID        string            `json:"account_id"`
	AlarmName        string            `json:"alarm_name"`
	AlarmARN         string            `json:"alarm_arn"`
	AlarmDescription string            `json:"alarm_description,omitempty"`
	ServiceType      string            `json:"service_type"`
	MetricName       string            `json:"metric_name,omitempty"`
	Namespace        string            `json:"namespace,omitempty"`
	Statistic        string            `json:"statistic,omitempty"`
	Dimensions       map[string]string `json:"dimensions"`
	Period           int32             `json:"period,omitempty"`
	Threshold        float64           `json:"threshold,omitempty"`
	State            string            `json:"state"`
	PreviousState    string            `json:"previous_state,omitempty"`
}

// NewPayload assembles the outbound request body for one resolved alarm.
// The incident ID is deterministic for a given state change, so replayed
// or retried events produce the same ID on the receiving side.
func NewPayload(a *alarm.Alarm, pol policy.Policy, samples []metrics.Sample, cfg *config.Config) *Payload {
	return &Payload{
		EventType:             eventTypeIncident,
		IncidentID:            fmt.Sprintf("%s-%d", a.Name, a.Timestamp.Unix()),
		Action:                actionCreated,
		Priority:              pol.Priority,
		Title:                 buildTitle(a, pol),
		ServiceName:           pol.ServiceName,
		AlarmName:             a.Name,
		StateReason:           a.Reason,
		Description:           buildDescription(a, samples),
		DeploymentName:        cfg.DeploymentName,
		DeploymentDescription: cfg.DeploymentDescription,
		Timestamp:             a.Timestamp.Format(time.RFC3339),
		Data: PayloadData{
			Metadata: Metadata{
				PipelineVersion:  pipelineVersion,
				Transport:        string(a.Transport),
				Region:           a.Region,
				AccountID:        a.AccountID,
				AlarmName:        a.Name,
				AlarmARN:         a.ARN,
				AlarmDescription: a.Description,
				ServiceType:      a.ServiceType(),
				MetricName:       a.MetricName,
				Namespace:        a.Namespace,
				Statistic:        a.Statistic,
				Dimensions:       a.Dimensions,
				Period:           a.Period,
				Threshold:        a.Threshold,
				State:            string(a.State),
				PreviousState:    string(a.PreviousState),
			},
		},
	}
}

func buildTitle(a *alarm.Alarm, pol policy.Policy) string {
	if a.MetricName == "" {
		return fmt.Sprintf("%s Alert", pol.ServiceName)
	}
	return fmt.Sprintf("%s - %s Alert", pol.ServiceName, a.MetricName)
}

func buildDescription(a *alarm.Alarm, samples []metrics.Sample) string {
	if len(samples) == 0 {
		return a.Reason
	}

	var b strings.Builder
	b.WriteString(a.Reason)
	b.WriteString("\n\nRecent metric values:\n")

	described := samples
	if len(described) > maxDescribedSamples {
		described = described[:maxDescribedSamples]
	}
	for _, s := range described {
		fmt.Fprintf(&b, "- %s: %g\n", s.Timestamp.Format(time.RFC3339), s.Value)
	}

	return b.String()
}
