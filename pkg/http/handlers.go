package http

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"speecheval-server/pkg/audio"
	"speecheval-server/pkg/errors"
	"speecheval-server/pkg/feedback"
	"speecheval-server/pkg/messaging"
	"speecheval-server/pkg/metrics"
	"speecheval-server/pkg/scoring"
)

// SubScoreReport carries the per-dimension scores formatted for display
// on the 0-10 scale. Relevance reads "N/A" when no reference text was
// supplied.
type SubScoreReport struct {
	Pronunciation string `json:"pronunciation_score"`
	Relevance     string `json:"relevance_score"`
	Rhythm        string `json:"rhythm_score"`
	Intonation    string `json:"intonation_score"`
	SpeechRate    string `json:"speech_rate_score"`
}

// RawScores exposes the full-precision [0,1] values for programmatic
// consumers. Relevance is null when it was not evaluated, which is
// distinct from a measured 0.
type RawScores struct {
	Overall       float64  `json:"overall"`
	Pronunciation float64  `json:"pronunciation"`
	Relevance     *float64 `json:"relevance"`
	Rhythm        float64  `json:"rhythm"`
	Intonation    float64  `json:"intonation"`
	SpeechRate    float64  `json:"speech_rate"`
}

// EvaluationResponse is the API answer for single and batch evaluations.
type EvaluationResponse struct {
	EvaluationID   string          `json:"evaluation_id,omitempty"`
	Score          string          `json:"score"`
	Transcript     string          `json:"transcript,omitempty"`
	Transcripts    []string        `json:"transcripts,omitempty"`
	SubScores      *SubScoreReport `json:"sub_scores,omitempty"`
	Strengths      []string        `json:"strengths"`
	AreasToImprove []string        `json:"areas_to_improve"`
	Feedback       string          `json:"feedback"`
	Timestamp      string          `json:"timestamp"`
	Error          string          `json:"error,omitempty"`
}

// ScoreRequest is the body of the pre-transcribed scoring endpoint.
type ScoreRequest struct {
	Transcript    string               `json:"transcript"`
	Words         []scoring.WordRecord `json:"words"`
	ReferenceText string               `json:"reference_text"`
}

// ScoreResponse is the answer of the pre-transcribed scoring endpoint.
type ScoreResponse struct {
	EvaluationID string         `json:"evaluation_id"`
	Score        string         `json:"score"`
	SubScores    SubScoreReport `json:"sub_scores"`
	Raw          RawScores      `json:"raw"`
	Timestamp    string         `json:"timestamp"`
}

func formatScore(raw float64) string {
	return fmt.Sprintf("%.1f", scoring.Scale(raw))
}

func subScoreReport(sub scoring.SubScores) SubScoreReport {
	relevance := "N/A"
	if sub.Relevance != nil {
		relevance = formatScore(*sub.Relevance)
	}
	return SubScoreReport{
		Pronunciation: formatScore(sub.Pronunciation),
		Relevance:     relevance,
		Rhythm:        formatScore(sub.Rhythm),
		Intonation:    formatScore(sub.Intonation),
		SpeechRate:    formatScore(sub.SpeechRate),
	}
}

func relevanceOrNeutral(sub scoring.SubScores) float64 {
	if sub.Relevance != nil {
		return *sub.Relevance
	}
	return 0.5
}

func feedbackScores(sub scoring.SubScores) feedback.Scores {
	return feedback.Scores{
		Pronunciation: sub.Pronunciation,
		Relevance:     relevanceOrNeutral(sub),
		Rhythm:        sub.Rhythm,
		Intonation:    sub.Intonation,
		SpeechRate:    sub.SpeechRate,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError answers with the original API's always-answer shape: the
// error text plus placeholder evaluation fields.
func (s *Server) writeError(w http.ResponseWriter, err error, generic string) {
	s.writeJSON(w, errors.HTTPStatus(err), EvaluationResponse{
		Error:          err.Error(),
		Score:          "N/A",
		Strengths:      []string{},
		AreasToImprove: []string{},
		Feedback:       generic,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

// evaluateUpload runs the full pipeline for one uploaded file: WAV
// decode, recognition, word normalization, scoring.
func (s *Server) evaluateUpload(ctx context.Context, file multipart.File, referenceText string) (scoring.EvaluationResult, error) {
	pcm, err := audio.DecodeWAV(file)
	if err != nil {
		return scoring.EvaluationResult{}, err
	}

	recognized, err := s.sttManager.Recognize(ctx, s.config.STT.DefaultVendor, pcm.Samples, pcm.SampleRate)
	if err != nil {
		return scoring.EvaluationResult{}, err
	}

	words := scoring.NormalizeWords(s.logger, recognized.Words)
	return scoring.Evaluate(scoring.EvaluationInput{
		Transcript:    recognized.Transcript,
		Words:         words,
		ReferenceText: referenceText,
	}), nil
}

// publishResult hands the evaluation to the AMQP queue when publishing
// is configured. Failures are logged and never affect the response.
func (s *Server) publishResult(evaluationID string, result scoring.EvaluationResult) {
	if s.publisher == nil {
		return
	}
	subs := map[string]float64{
		"pronunciation": result.SubScores.Pronunciation,
		"rhythm":        result.SubScores.Rhythm,
		"intonation":    result.SubScores.Intonation,
		"speech_rate":   result.SubScores.SpeechRate,
	}
	if result.SubScores.Relevance != nil {
		subs["relevance"] = *result.SubScores.Relevance
	}
	msg := messaging.EvaluationMessage{
		EvaluationID:  evaluationID,
		OverallScore:  result.OverallScore,
		SubScores:     subs,
		Transcript:    result.Transcript,
		ReferenceText: result.ReferenceText,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.publisher.PublishEvaluation(msg); err != nil {
		s.logger.WithError(err).WithField("evaluation_id", evaluationID).Warn("Failed to publish evaluation result")
	}
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(s.config.HTTP.MaxUploadBytes); err != nil {
		metrics.RecordEvaluation("full", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, errors.Wrap(errors.ErrInvalidInput, err.Error()), "Error processing audio")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		metrics.RecordEvaluation("full", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, errors.Wrap(errors.ErrInvalidInput, "missing file upload"), "Error processing audio")
		return
	}
	defer file.Close()
	topic := r.FormValue("topic")

	result, err := s.evaluateUpload(r.Context(), file, topic)
	if err != nil {
		metrics.RecordEvaluation("full", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, err, "Error processing audio")
		return
	}

	fb := s.feedback.Generate(r.Context(), result.Words, result.Transcript, result.ReferenceText, feedbackScores(result.SubScores))

	evaluationID := uuid.NewString()
	go s.publishResult(evaluationID, result)

	report := subScoreReport(result.SubScores)
	metrics.RecordEvaluation("full", "success", time.Since(start).Seconds(), result.OverallScore)
	s.writeJSON(w, http.StatusOK, EvaluationResponse{
		EvaluationID:   evaluationID,
		Score:          fmt.Sprintf("%.1f", result.OverallScore),
		Transcript:     result.Transcript,
		SubScores:      &report,
		Strengths:      fb.Strengths,
		AreasToImprove: fb.AreasToImprove,
		Feedback:       fb.Detailed,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleEvaluatePronunciation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(s.config.HTTP.MaxUploadBytes); err != nil {
		metrics.RecordEvaluation("pronunciation", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, errors.Wrap(errors.ErrInvalidInput, err.Error()), "Error processing audio")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		metrics.RecordEvaluation("pronunciation", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, errors.Wrap(errors.ErrInvalidInput, "missing file upload"), "Error processing audio")
		return
	}
	defer file.Close()

	result, err := s.evaluateUpload(r.Context(), file, "")
	if err != nil {
		metrics.RecordEvaluation("pronunciation", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, err, "Error processing audio")
		return
	}

	fb := s.feedback.GeneratePronunciationOnly(r.Context(), result.Words, result.Transcript, feedbackScores(result.SubScores))

	evaluationID := uuid.NewString()
	go s.publishResult(evaluationID, result)

	report := subScoreReport(result.SubScores)
	metrics.RecordEvaluation("pronunciation", "success", time.Since(start).Seconds(), result.OverallScore)
	s.writeJSON(w, http.StatusOK, EvaluationResponse{
		EvaluationID:   evaluationID,
		Score:          fmt.Sprintf("%.1f", result.OverallScore),
		Transcript:     result.Transcript,
		SubScores:      &report,
		Strengths:      fb.Strengths,
		AreasToImprove: fb.AreasToImprove,
		Feedback:       fb.Detailed,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(s.config.HTTP.MaxUploadBytes); err != nil {
		metrics.RecordEvaluation("batch", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, errors.Wrap(errors.ErrInvalidInput, err.Error()), "Error processing audio files")
		return
	}
	files := r.MultipartForm.File["files"]

	var topics []string
	for _, line := range strings.Split(r.FormValue("topics"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			topics = append(topics, trimmed)
		}
	}

	// Count mismatch is a user input error, not a scoring error.
	if len(files) != len(topics) {
		metrics.RecordEvaluation("batch", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, errors.ErrBatchMismatch, "Error: Input mismatch")
		return
	}
	if len(files) == 0 {
		metrics.RecordEvaluation("batch", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, errors.Wrap(errors.ErrInvalidInput, "no audio files supplied"), "Error processing audio files")
		return
	}

	var (
		results     []scoring.EvaluationResult
		transcripts []string
		allWords    []scoring.WordRecord
	)
	for i, header := range files {
		file, err := header.Open()
		if err != nil {
			transcripts = append(transcripts, fmt.Sprintf("Error with file %d: %s", i+1, err))
			continue
		}
		result, err := s.evaluateUpload(r.Context(), file, topics[i])
		file.Close()
		if err != nil {
			transcripts = append(transcripts, fmt.Sprintf("Error processing file %d: %s", i+1, err))
			continue
		}
		results = append(results, result)
		transcripts = append(transcripts, result.Transcript)
		allWords = append(allWords, result.Words...)
	}

	if len(results) == 0 {
		metrics.RecordEvaluation("batch", "error", time.Since(start).Seconds(), 0)
		s.writeJSON(w, http.StatusInternalServerError, EvaluationResponse{
			Error:          "No audio files could be processed",
			Score:          "N/A",
			Transcripts:    transcripts,
			Strengths:      []string{},
			AreasToImprove: []string{},
			Feedback:       "Error processing audio files",
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	// Batch mode averages completed per-file scores; it never re-scores
	// concatenated word lists.
	avgScore := scoring.BatchAverage(results)
	n := float64(len(results))
	avg := feedback.Scores{Relevance: 0}
	for _, res := range results {
		avg.Pronunciation += res.SubScores.Pronunciation / n
		avg.Rhythm += res.SubScores.Rhythm / n
		avg.Intonation += res.SubScores.Intonation / n
		avg.SpeechRate += res.SubScores.SpeechRate / n
		if res.SubScores.Relevance != nil {
			avg.Relevance += *res.SubScores.Relevance / n
		}
	}

	fb := s.feedback.Generate(r.Context(), allWords, strings.Join(transcripts, " "), strings.Join(topics, " "), avg)

	evaluationID := uuid.NewString()
	metrics.RecordEvaluation("batch", "success", time.Since(start).Seconds(), avgScore)
	s.writeJSON(w, http.StatusOK, EvaluationResponse{
		EvaluationID:   evaluationID,
		Score:          fmt.Sprintf("%.1f", avgScore),
		Transcripts:    transcripts,
		Strengths:      fb.Strengths,
		AreasToImprove: fb.AreasToImprove,
		Feedback:       fb.Detailed,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

// handleScore runs the engine directly over a pre-transcribed word list,
// bypassing audio decode and recognition.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordEvaluation("score", "error", time.Since(start).Seconds(), 0)
		s.writeError(w, errors.Wrap(errors.ErrInvalidInput, err.Error()), "Error decoding request")
		return
	}

	words := scoring.NormalizeWords(s.logger, req.Words)
	result := scoring.Evaluate(scoring.EvaluationInput{
		Transcript:    req.Transcript,
		Words:         words,
		ReferenceText: req.ReferenceText,
	})

	evaluationID := uuid.NewString()
	go s.publishResult(evaluationID, result)

	metrics.RecordEvaluation("score", "success", time.Since(start).Seconds(), result.OverallScore)
	s.writeJSON(w, http.StatusOK, ScoreResponse{
		EvaluationID: evaluationID,
		Score:        fmt.Sprintf("%.1f", result.OverallScore),
		SubScores:    subScoreReport(result.SubScores),
		Raw: RawScores{
			Overall:       result.Overall,
			Pronunciation: result.SubScores.Pronunciation,
			Relevance:     result.SubScores.Relevance,
			Rhythm:        result.SubScores.Rhythm,
			Intonation:    result.SubScores.Intonation,
			SpeechRate:    result.SubScores.SpeechRate,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Speech Evaluation API is running",
		"status":  "ok",
	})
}
