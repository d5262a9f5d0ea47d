package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskNurtureRun = "nurture.run"

const TaskEngagementEvent = "leads.engagement.event"

const TaskLeadCapture = "leads.capture"

type NurtureRunPayload struct {
	TriggeredBy string `json:"triggeredBy"` // "interval" or "manual"
}

type EngagementEventPayload struct {
	SubscriberID string `json:"subscriberId"`
	EventType    string `json:"eventType"`
	EventID      string `json:"eventId"`
}

type LeadCapturePayload struct {
	Source           string `json:"source"` // calculator, resource, or newsletter
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	Company          string `json:"company"`
	FacilitySize     int    `json:"facilitySize"`
	ProjectedSavings int64  `json:"projectedSavings"`
}

func NewNurtureRunTask(payload NurtureRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNurtureRun, data), nil
}

func ParseNurtureRunPayload(task *asynq.Task) (NurtureRunPayload, error) {
	var payload NurtureRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NurtureRunPayload{}, err
	}
	return payload, nil
}

func NewEngagementEventTask(payload EngagementEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEngagementEvent, data), nil
}

func ParseEngagementEventPayload(task *asynq.Task) (EngagementEventPayload, error) {
	var payload EngagementEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EngagementEventPayload{}, err
	}
	return payload, nil
}

func NewLeadCaptureTask(payload LeadCapturePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadCapture, data), nil
}

func ParseLeadCapturePayload(task *asynq.Task) (LeadCapturePayload, error) {
	var payload LeadCapturePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadCapturePayload{}, err
	}
	return payload, nil
}
