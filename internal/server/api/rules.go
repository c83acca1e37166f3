package api

import (
	"net/http"

	"github.com/ayusman/postural/internal/gesture"
	"github.com/ayusman/postural/internal/pose"
)

// RulesHandler describes the active rule set.
type RulesHandler struct {
	classifier *gesture.Classifier
}

// NewRulesHandler creates a RulesHandler for classifier.
func NewRulesHandler(classifier *gesture.Classifier) *RulesHandler {
	return &RulesHandler{classifier: classifier}
}

type ruleResponse struct {
	Name     string               `json:"name"`
	Command  gesture.Command      `json:"command"`
	Requires []pose.Landmark `json:"requires"`
}

type rulesResponse struct {
	Version string         `json:"version"`
	Rules   []ruleResponse `json:"rules"`
}

// ServeHTTP handles GET /api/rules. Rules are listed in evaluation order.
func (h *RulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rules := h.classifier.Rules()

	resp := rulesResponse{
		Version: gesture.RuleSetVersion,
		Rules:   make([]ruleResponse, 0, len(rules)),
	}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, ruleResponse{
			Name:     rule.Name,
			Command:  rule.Command,
			Requires: rule.Requires,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ClassifyHandler classifies a posted landmark snapshot.
type ClassifyHandler struct {
	classifier *gesture.Classifier
}

// NewClassifyHandler creates a ClassifyHandler for classifier.
func NewClassifyHandler(classifier *gesture.Classifier) *ClassifyHandler {
	return &ClassifyHandler{classifier: classifier}
}

type classifyResponse struct {
	Command  gesture.Command `json:"command"`
	Rule     string          `json:"rule"`
	Feedback string          `json:"feedback"`
}

// ServeHTTP handles POST /api/classify with a snapshot body of the form
// {"landmarks": {"LEFT_WRIST": {"x":..,"y":..,"z":..}, ...}}.
func (h *ClassifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var snap pose.Snapshot
	if err := decodeJSON(w, r, &snap); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid snapshot: "+err.Error())
		return
	}

	res := h.classifier.Evaluate(&snap)
	writeJSON(w, http.StatusOK, classifyResponse{
		Command:  res.Command,
		Rule:     res.Rule,
		Feedback: res.Command.Feedback(),
	})
}
