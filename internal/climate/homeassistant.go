package climate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/errors"
)

const haRequestTimeout = 10 * time.Second

// Equipment labels reported by the thermostat, per mode.
var stagesByMode = map[string][]string{
	"cool": {"compCool"},
	"heat": {"heatPump", "auxHeat"},
}

// HomeAssistantSource reads a climate entity's state over the Home
// Assistant REST API.
type HomeAssistantSource struct {
	baseURL string
	token   string
	entity  string
	mode    string
	client  *http.Client
	now     func() time.Time
}

func NewHomeAssistantSource(baseURL, token, entity, mode string) *HomeAssistantSource {
	return &HomeAssistantSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		entity:  entity,
		mode:    mode,
		client:  &http.Client{Timeout: haRequestTimeout},
		now:     time.Now,
	}
}

type haState struct {
	State      string `json:"state"`
	Attributes struct {
		CurrentTemperature float64 `json:"current_temperature"`
		Temperature        float64 `json:"temperature"`
		HVACAction         string  `json:"hvac_action"`
		EquipmentRunning   string  `json:"equipment_running"`
	} `json:"attributes"`
}

func (s *HomeAssistantSource) Read(ctx context.Context) (Reading, error) {
	errFactory := errors.New()

	endpoint, err := url.JoinPath(s.baseURL, "api", "states", s.entity)
	if err != nil {
		return Reading{}, errFactory.Wrap(ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Reading{}, errFactory.Wrap(ErrSourceUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Reading{}, errFactory.Wrap(ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Reading{}, errFactory.WithData(ErrEntityNotFound, s.entity)
	case resp.StatusCode != http.StatusOK:
		return Reading{}, errFactory.WithData(ErrSourceUnavailable, resp.Status)
	}

	var state haState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return Reading{}, errFactory.Wrap(ErrInvalidState, err)
	}

	return Reading{
		Timestamp:   s.now(),
		Running:     EquipmentRunning(state.Attributes.EquipmentRunning, s.mode),
		CurrentTemp: state.Attributes.CurrentTemperature,
		TargetTemp:  state.Attributes.Temperature,
		HVACAction:  state.Attributes.HVACAction,
		Equipment:   state.Attributes.EquipmentRunning,
	}, nil
}

// EquipmentRunning reports whether the equipment label shows an active
// stage for the given mode, e.g. "fan,compCool1" is running in cool mode.
func EquipmentRunning(equipment, mode string) bool {
	stages, ok := stagesByMode[mode]
	if !ok {
		return false
	}

	for _, stage := range stages {
		if strings.Contains(equipment, stage) {
			return true
		}
	}

	return false
}
