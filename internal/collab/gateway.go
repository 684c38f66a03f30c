package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/utils"
)

// GatewayClient is the reference implementation of the four evidence
// collaborators, backed by a single HTTP evidence gateway. Each fetch is one
// POST with the target identity and time window; the HTTP client timeout is
// the collaborator's whole budget.
type GatewayClient struct {
	baseURL     string
	clusterPath string
	metricsPath string
	logsPath    string
	scopePath   string
	httpClient  *http.Client
}

// NewGatewayClient constructs a client targeting the configured gateway.
func NewGatewayClient(baseURL, clusterPath, metricsPath, logsPath, scopePath string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		clusterPath: clusterPath,
		metricsPath: metricsPath,
		logsPath:    logsPath,
		scopePath:   scopePath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type gatewayPayload struct {
	Alertname string            `json:"alertname"`
	Family    string            `json:"family"`
	Labels    map[string]string `json:"labels"`
	Target    gatewayTarget     `json:"target"`
	Start     string            `json:"start"`
	End       string            `json:"end"`
}

type gatewayTarget struct {
	Type      string `json:"type"`
	Cluster   string `json:"cluster,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Pod       string `json:"pod,omitempty"`
	Container string `json:"container,omitempty"`
	Service   string `json:"service,omitempty"`
	Instance  string `json:"instance,omitempty"`
}

func buildPayload(req EvidenceRequest) gatewayPayload {
	return gatewayPayload{
		Alertname: req.Alert.Name,
		Family:    string(req.Family),
		Labels:    req.Alert.Labels,
		Target: gatewayTarget{
			Type:      string(req.Target.Type),
			Cluster:   req.Target.Cluster,
			Namespace: req.Target.Namespace,
			Pod:       req.Target.Pod,
			Container: req.Target.Container,
			Service:   req.Target.Service,
			Instance:  req.Target.Instance,
		},
		Start: req.Window.Start.Format(time.RFC3339),
		End:   req.Window.End.Format(time.RFC3339),
	}
}

// FetchClusterState queries the gateway for the target's cluster view.
func (c *GatewayClient) FetchClusterState(ctx context.Context, req EvidenceRequest) (models.ClusterStateEvidence, error) {
	if err := c.ready(); err != nil {
		return models.ClusterStateEvidence{State: models.SectionUnavailable}, err
	}

	var response struct {
		PodPhase   string `json:"pod_phase"`
		Ready      bool   `json:"ready"`
		Conditions []struct {
			Type    string `json:"type"`
			Status  string `json:"status"`
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"conditions"`
		Events []struct {
			Time    time.Time `json:"time"`
			Type    string    `json:"type"`
			Reason  string    `json:"reason"`
			Message string    `json:"message"`
		} `json:"events"`
		OwnerChain             []string `json:"owner_chain"`
		RolloutStatus          string   `json:"rollout_status"`
		RestartCount           int      `json:"restart_count"`
		LastTerminationReason  string   `json:"last_termination_reason"`
		ContainerWaitingReason string   `json:"container_waiting_reason"`
	}

	if err := c.postJSON(ctx, c.resolvePath(c.clusterPath), buildPayload(req), &response); err != nil {
		return models.ClusterStateEvidence{State: models.SectionUnavailable}, fmt.Errorf("gateway cluster-state request failed: %w", err)
	}

	ev := models.ClusterStateEvidence{
		State:                  models.SectionPresent,
		PodPhase:               response.PodPhase,
		Ready:                  response.Ready,
		OwnerChain:             response.OwnerChain,
		RolloutStatus:          response.RolloutStatus,
		RestartCount:           response.RestartCount,
		LastTerminationReason:  response.LastTerminationReason,
		ContainerWaitingReason: response.ContainerWaitingReason,
	}
	for _, cond := range response.Conditions {
		ev.Conditions = append(ev.Conditions, models.PodCondition{
			Type:    cond.Type,
			Status:  cond.Status,
			Reason:  cond.Reason,
			Message: cond.Message,
		})
	}
	for _, event := range response.Events {
		ev.Events = append(ev.Events, models.ClusterEvent{
			Time:    event.Time,
			Type:    event.Type,
			Reason:  event.Reason,
			Message: event.Message,
		})
	}
	return ev, nil
}

// FetchMetrics queries the gateway for named numeric signals.
func (c *GatewayClient) FetchMetrics(ctx context.Context, req EvidenceRequest) (models.MetricsEvidence, error) {
	if err := c.ready(); err != nil {
		return models.MetricsEvidence{State: models.SectionUnavailable}, err
	}

	var response struct {
		Signals map[string]float64 `json:"signals"`
	}

	if err := c.postJSON(ctx, c.resolvePath(c.metricsPath), buildPayload(req), &response); err != nil {
		return models.MetricsEvidence{State: models.SectionUnavailable}, fmt.Errorf("gateway metrics request failed: %w", err)
	}

	return models.MetricsEvidence{State: models.SectionPresent, Signals: response.Signals}, nil
}

// FetchLogs queries the gateway for recent log lines.
func (c *GatewayClient) FetchLogs(ctx context.Context, req EvidenceRequest) (models.LogsEvidence, error) {
	if err := c.ready(); err != nil {
		return models.LogsEvidence{State: models.SectionUnavailable, Status: models.LogsUnavailable}, err
	}

	var response struct {
		Lines   []string `json:"lines"`
		Backend string   `json:"backend"`
		Query   string   `json:"query"`
	}

	if err := c.postJSON(ctx, c.resolvePath(c.logsPath), buildPayload(req), &response); err != nil {
		return models.LogsEvidence{State: models.SectionUnavailable, Status: models.LogsUnavailable}, fmt.Errorf("gateway logs request failed: %w", err)
	}

	status := models.LogsOK
	if len(response.Lines) == 0 {
		status = models.LogsEmpty
	}
	return models.LogsEvidence{
		State:   models.SectionPresent,
		Status:  status,
		Lines:   response.Lines,
		Backend: response.Backend,
		Query:   response.Query,
	}, nil
}

// FetchScope queries the gateway for firing/active counts and flap inputs.
func (c *GatewayClient) FetchScope(ctx context.Context, req EvidenceRequest) (models.NoiseEvidence, error) {
	if err := c.ready(); err != nil {
		return models.NoiseEvidence{State: models.SectionUnavailable}, err
	}

	var response struct {
		FiringCount      *int           `json:"firing_count"`
		ActiveCount      *int           `json:"active_count"`
		FlapPerHour      float64        `json:"flap_per_hour"`
		LabelCardinality map[string]int `json:"label_cardinality"`
	}

	if err := c.postJSON(ctx, c.resolvePath(c.scopePath), buildPayload(req), &response); err != nil {
		return models.NoiseEvidence{State: models.SectionUnavailable}, fmt.Errorf("gateway scope request failed: %w", err)
	}

	return models.NoiseEvidence{
		State:            models.SectionPresent,
		FiringCount:      response.FiringCount,
		ActiveCount:      response.ActiveCount,
		FlapPerHour:      response.FlapPerHour,
		LabelCardinality: response.LabelCardinality,
	}, nil
}

func (c *GatewayClient) ready() error {
	if c == nil {
		return fmt.Errorf("gateway client not initialised")
	}
	if c.baseURL == "" {
		return fmt.Errorf("gateway base URL not configured")
	}
	return nil
}

func (c *GatewayClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *GatewayClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.ExternalError("gateway", "evidence request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return utils.ExternalError("gateway", fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
