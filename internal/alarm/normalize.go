package alarm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// CloudWatch emits this offset layout in state change timestamps, e.g.
// "2024-03-18T16:30:42.236+0000". RFC3339 is the fallback.
const stateChangeTimeLayout = "2006-01-02T15:04:05.999-0700"

// stateChangeDetail is the EventBridge "CloudWatch Alarm State Change"
// detail document.
type stateChangeDetail struct {
	AlarmName     string           `json:"alarmName"`
	State         stateChangeState `json:"state"`
	PreviousState stateChangeState `json:"previousState"`
	Configuration struct {
		Description string `json:"description"`
		Metrics     []struct {
			MetricStat *struct {
				Metric struct {
					Namespace  string            `json:"namespace"`
					Name       string            `json:"name"`
					Dimensions map[string]string `json:"dimensions"`
				} `json:"metric"`
				Period int32  `json:"period"`
				Stat   string `json:"stat"`
			} `json:"metricStat"`
			ReturnData bool `json:"returnData"`
		} `json:"metrics"`
	} `json:"configuration"`
}

type stateChangeState struct {
	Value      string `json:"value"`
	Reason     string `json:"reason"`
	ReasonData string `json:"reasonData"`
	Timestamp  string `json:"timestamp"`
}

// legacyNotification is the SNS alarm notification body, the schema SNS
// actions have carried since before EventBridge existed.
type legacyNotification struct {
	AlarmName        string         `json:"AlarmName"`
	AlarmDescription string         `json:"AlarmDescription"`
	AlarmARN         string         `json:"AlarmArn"`
	AWSAccountID     string         `json:"AWSAccountId"`
	NewStateValue    string         `json:"NewStateValue"`
	OldStateValue    string         `json:"OldStateValue"`
	NewStateReason   string         `json:"NewStateReason"`
	StateChangeTime  string         `json:"StateChangeTime"`
	Region           string         `json:"Region"`
	Trigger          *legacyTrigger `json:"Trigger"`
}

type legacyTrigger struct {
	MetricName        string            `json:"MetricName"`
	Namespace         string            `json:"Namespace"`
	Statistic         string            `json:"Statistic"`
	ExtendedStatistic string            `json:"ExtendedStatistic"`
	Dimensions        []legacyDimension `json:"Dimensions"`
	Period            int32             `json:"Period"`
	Threshold         float64           `json:"Threshold"`
}

type legacyDimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Decode splits a raw invocation event into its alarm records and reports
// which transport delivered them. EventBridge events carry exactly one
// record; SNS envelopes may carry several.
func Decode(raw []byte) ([][]byte, Transport, error) {
	var probe struct {
		Detail  json.RawMessage   `json:"detail"`
		Records []json.RawMessage `json:"Records"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch {
	case len(probe.Detail) > 0 && string(probe.Detail) != "null":
		return [][]byte{raw}, TransportEventBridge, nil
	case len(probe.Records) > 0:
		var event events.SNSEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}

		records := make([][]byte, 0, len(event.Records))
		for _, r := range event.Records {
			records = append(records, []byte(r.SNS.Message))
		}
		return records, TransportSNS, nil
	default:
		return nil, "", fmt.Errorf("%w: no alarm detail or records", ErrMalformedEvent)
	}
}

// Normalize parses one record of the given transport into the canonical
// form. Records in any state other than ALARM return IgnoredTransitionError.
func Normalize(record []byte, transport Transport) (*Alarm, error) {
	switch transport {
	case TransportEventBridge:
		return normalizeStateChange(record)
	case TransportSNS:
		return normalizeLegacy(record)
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", ErrMalformedEvent, transport)
	}
}

func normalizeStateChange(record []byte) (*Alarm, error) {
	var event events.CloudWatchEvent
	if err := json.Unmarshal(record, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var detail stateChangeDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if detail.AlarmName == "" {
		return nil, missingField("alarmName")
	}
	if detail.State.Value == "" {
		return nil, missingField("state.value")
	}

	a := &Alarm{
		Name:          detail.AlarmName,
		Description:   detail.Configuration.Description,
		State:         State(detail.State.Value),
		PreviousState: State(detail.PreviousState.Value),
		Reason:        detail.State.Reason,
		Dimensions:    map[string]string{},
		Threshold:     thresholdFromReasonData(detail.State.ReasonData),
		Timestamp:     parseStateChangeTime(detail.State.Timestamp),
		Transport:     TransportEventBridge,
	}

	if len(event.Resources) > 0 {
		a.ARN = event.Resources[0]
	}
	a.Region, a.AccountID = locate(a.ARN, event.Region, event.AccountID)

	// Only the first materialized metric matters; composite and anomaly
	// detection alarms may carry none.
	for _, m := range detail.Configuration.Metrics {
		if m.MetricStat == nil {
			continue
		}
		a.Namespace = m.MetricStat.Metric.Namespace
		a.MetricName = m.MetricStat.Metric.Name
		a.Statistic = m.MetricStat.Stat
		a.Period = m.MetricStat.Period
		for name, value := range m.MetricStat.Metric.Dimensions {
			a.Dimensions[name] = value
		}
		break
	}

	if a.State != StateAlarm {
		return nil, &IgnoredTransitionError{AlarmName: a.Name, State: a.State}
	}
	return a, nil
}

func normalizeLegacy(record []byte) (*Alarm, error) {
	var n legacyNotification
	if err := json.Unmarshal(record, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if n.AlarmName == "" {
		return nil, missingField("AlarmName")
	}
	if n.NewStateValue == "" {
		return nil, missingField("NewStateValue")
	}

	a := &Alarm{
		Name:          n.AlarmName,
		ARN:           n.AlarmARN,
		Description:   n.AlarmDescription,
		State:         State(n.NewStateValue),
		PreviousState: State(n.OldStateValue),
		Reason:        n.NewStateReason,
		Dimensions:    map[string]string{},
		Timestamp:     parseStateChangeTime(n.StateChangeTime),
		Transport:     TransportSNS,
	}

	if n.Trigger != nil {
		a.Namespace = n.Trigger.Namespace
		a.MetricName = n.Trigger.MetricName
		a.Statistic = normalizeStatistic(n.Trigger)
		a.Period = n.Trigger.Period
		a.Threshold = n.Trigger.Threshold
		for _, d := range n.Trigger.Dimensions {
			a.Dimensions[d.Name] = d.Value
		}
	}

	// The legacy Region field holds a display name like "US East
	// (N. Virginia)", so the ARN is the better source for both fields.
	a.Region, a.AccountID = locate(a.ARN, n.Region, n.AWSAccountID)

	if a.State != StateAlarm {
		return nil, &IgnoredTransitionError{AlarmName: a.Name, State: a.State}
	}
	return a, nil
}

// locate extracts region and account from an alarm ARN
// (arn:aws:cloudwatch:region:account:alarm:name), falling back to the
// envelope values.
func locate(arn, region, accountID string) (string, string) {
	parts := strings.Split(arn, ":")
	if len(parts) > 4 {
		if parts[3] != "" {
			region = parts[3]
		}
		if parts[4] != "" {
			accountID = parts[4]
		}
	}
	return region, accountID
}

func thresholdFromReasonData(raw string) float64 {
	if raw == "" {
		return 0
	}

	var data struct {
		Threshold float64 `json:"threshold"`
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return 0
	}
	return data.Threshold
}

// normalizeStatistic maps the legacy uppercase statistic spelling to the
// casing GetMetricData expects. Extended statistics pass through verbatim.
func normalizeStatistic(t *legacyTrigger) string {
	if t.Statistic == "" {
		return t.ExtendedStatistic
	}

	switch strings.ToUpper(t.Statistic) {
	case "AVERAGE":
		return "Average"
	case "SUM":
		return "Sum"
	case "MINIMUM":
		return "Minimum"
	case "MAXIMUM":
		return "Maximum"
	case "SAMPLECOUNT":
		return "SampleCount"
	default:
		return t.Statistic
	}
}

func parseStateChangeTime(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	if t, err := time.Parse(stateChangeTimeLayout, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}
