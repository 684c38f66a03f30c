package models

import (
	"sort"
	"time"
)

// AlertState is the normalized lifecycle state of an alert instance.
type AlertState string

const (
	AlertFiring   AlertState = "firing"
	AlertResolved AlertState = "resolved"
	AlertUnknown  AlertState = "unknown"
)

// Alert is a single monitoring alert instance, immutable once parsed.
type Alert struct {
	Fingerprint  string
	Name         string
	Labels       map[string]string
	Annotations  map[string]string
	State        AlertState
	StartsAt     time.Time
	EndsAt       time.Time
	GeneratorURL string
}

// WebhookMessage is the Alertmanager webhook envelope delivered to the ingest API.
type WebhookMessage struct {
	Version           string            `json:"version"`
	GroupKey          string            `json:"groupKey"`
	TruncatedAlerts   int               `json:"truncatedAlerts"`
	Status            string            `json:"status"`
	Receiver          string            `json:"receiver"`
	GroupLabels       map[string]string `json:"groupLabels"`
	CommonLabels      map[string]string `json:"commonLabels"`
	CommonAnnotations map[string]string `json:"commonAnnotations"`
	ExternalURL       string            `json:"externalURL"`
	Alerts            []WebhookAlert    `json:"alerts"`
}

// WebhookAlert is one alert entry inside a webhook message.
type WebhookAlert struct {
	Status       string            `json:"status"`
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     time.Time         `json:"startsAt"`
	EndsAt       time.Time         `json:"endsAt"`
	GeneratorURL string            `json:"generatorURL"`
	Fingerprint  string            `json:"fingerprint"`
}

// ParseAlert normalizes a webhook alert entry into the immutable domain Alert.
func ParseAlert(wa WebhookAlert) Alert {
	state := AlertUnknown
	switch wa.Status {
	case "firing":
		state = AlertFiring
	case "resolved":
		state = AlertResolved
	}

	labels := copyLabels(wa.Labels)
	annotations := copyLabels(wa.Annotations)

	return Alert{
		Fingerprint:  wa.Fingerprint,
		Name:         labels["alertname"],
		Labels:       labels,
		Annotations:  annotations,
		State:        state,
		StartsAt:     wa.StartsAt.UTC(),
		EndsAt:       wa.EndsAt.UTC(),
		GeneratorURL: wa.GeneratorURL,
	}
}

// Label returns the value of a label or "" when absent.
func (a Alert) Label(key string) string {
	if a.Labels == nil {
		return ""
	}
	return a.Labels[key]
}

// Annotation returns the value of an annotation or "" when absent.
func (a Alert) Annotation(key string) string {
	if a.Annotations == nil {
		return ""
	}
	return a.Annotations[key]
}

// SortedLabelKeys returns label keys in a stable order for rendering.
func (a Alert) SortedLabelKeys() []string {
	keys := make([]string, 0, len(a.Labels))
	for k := range a.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyLabels(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
