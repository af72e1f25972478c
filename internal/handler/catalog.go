package handler

import (
	"net/http"

	"github.com/pavelanni/ssbprep/internal/model"
)

type questionsResponse struct {
	Questions any `json:"questions"`
}

func (h *Handler) handleOIRQuestions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, questionsResponse{Questions: h.catalog.OIRQuestions()})
}

func (h *Handler) handlePPDTImages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Images []model.PPDTImage `json:"images"`
	}{h.catalog.PPDTImages()})
}

func (h *Handler) handleTATScenarios(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Scenarios []model.TATScenario `json:"scenarios"`
	}{h.catalog.TATScenarios()})
}

func (h *Handler) handleWATWords(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Words []string `json:"words"`
	}{h.catalog.WATWords()})
}

func (h *Handler) handleSRTSituations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Situations []model.SRTSituation `json:"situations"`
	}{h.catalog.SRTSituations()})
}

// handleInterviewStart hands out the interview question set. It stays a POST
// because clients treat it as starting a session.
func (h *Handler) handleInterviewStart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, questionsResponse{Questions: h.catalog.InterviewQuestions()})
}

func (h *Handler) handleDefenseGKQuiz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, questionsResponse{Questions: h.catalog.DefenseGKQuiz()})
}

func (h *Handler) handleCurrentAffairsQuiz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, questionsResponse{Questions: h.catalog.CurrentAffairsQuiz()})
}

func (h *Handler) handleGTOTasks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Tasks []model.GTOTask `json:"tasks"`
	}{h.catalog.GTOTasks()})
}
