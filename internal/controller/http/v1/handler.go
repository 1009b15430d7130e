package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/veriperu/dniverify/internal/domain"
	"github.com/veriperu/dniverify/internal/service"
)

type Uploader interface {
	Upload(ctx context.Context, fileName string, rawDNIs []string) (*service.UploadResult, error)
}

type StatusReporter interface {
	Report(ctx context.Context) (*service.StatusReport, error)
	Queues(ctx context.Context) (*service.QueueReport, error)
}

type Lister interface {
	Records(ctx context.Context, filter domain.RecordFilter, page, limit uint64) ([]*domain.Record, int, error)
	Batches(ctx context.Context) ([]*domain.Batch, error)
}

type Controller interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Retrier interface {
	Retry(ctx context.Context) (int64, error)
}

type Recoverer interface {
	Recover(ctx context.Context) (*service.RecoverResult, error)
}

type Purger interface {
	Purge(ctx context.Context) (*service.PurgeResult, error)
}

type PipelineHandler struct {
	uploader  Uploader
	status    StatusReporter
	lister    Lister
	control   Controller
	retrier   Retrier
	recoverer Recoverer
	purger    Purger
}

func NewPipelineHandler(
	uploader Uploader,
	status StatusReporter,
	lister Lister,
	control Controller,
	retrier Retrier,
	recoverer Recoverer,
	purger Purger,
) *PipelineHandler {
	return &PipelineHandler{
		uploader:  uploader,
		status:    status,
		lister:    lister,
		control:   control,
		retrier:   retrier,
		recoverer: recoverer,
		purger:    purger,
	}
}

type UploadRequest struct {
	FileName string   `json:"file_name"`
	DNIs     []string `json:"dnis"`
}

func (h *PipelineHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FileName == "" {
		http.Error(w, "file_name is required", http.StatusBadRequest)
		return
	}

	result, err := h.uploader.Upload(r.Context(), req.FileName, req.DNIs)
	if err != nil {
		if errors.Is(err, service.ErrNoValidDNIs) {
			writeJSON(w, http.StatusBadRequest, result)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *PipelineHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.status.Report(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *PipelineHandler) GetQueues(w http.ResponseWriter, r *http.Request) {
	report, err := h.status.Queues(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type GetRecordsResponse struct {
	Records    []*domain.Record `json:"records"`
	Pagination Pagination       `json:"pagination"`
}

func (h *PipelineHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := parseRecordFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, total, err := h.lister.Records(r.Context(), filter, page, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, GetRecordsResponse{
		Records:    records,
		Pagination: newPagination(page, limit, total),
	})
}

type GetBatchesResponse struct {
	Batches []*domain.Batch `json:"batches"`
}

func (h *PipelineHandler) GetBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.lister.Batches(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, GetBatchesResponse{Batches: batches})
}

func (h *PipelineHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.signal(w, r, h.control.Pause)
}

func (h *PipelineHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.signal(w, r, h.control.Resume)
}

func (h *PipelineHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.signal(w, r, h.control.Stop)
}

func (h *PipelineHandler) signal(w http.ResponseWriter, r *http.Request, publish func(context.Context) error) {
	if err := publish(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type RetryResponse struct {
	Retried int64 `json:"retried"`
}

func (h *PipelineHandler) Retry(w http.ResponseWriter, r *http.Request) {
	retried, err := h.retrier.Retry(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrPipelineActive) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, RetryResponse{Retried: retried})
}

func (h *PipelineHandler) Recover(w http.ResponseWriter, r *http.Request) {
	result, err := h.recoverer.Recover(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *PipelineHandler) Purge(w http.ResponseWriter, r *http.Request) {
	result, err := h.purger.Purge(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parsePagination(r *http.Request) (page uint64, limit uint64, err error) {
	page, limit = 1, 10

	if p := r.URL.Query().Get("page"); p != "" {
		page, err = strconv.ParseUint(p, 10, 64)
		if err != nil || page == 0 {
			return 0, 0, errors.New("invalid page")
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.ParseUint(l, 10, 64)
		if err != nil || limit < 1 || limit > 100 {
			return 0, 0, errors.New("invalid limit, must be in [1;100]")
		}
	}

	return page, limit, nil
}

func parseRecordFilter(r *http.Request) (domain.RecordFilter, error) {
	var filter domain.RecordFilter

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			return domain.RecordFilter{}, err
		}
		filter.Status = &status
	}

	if b := r.URL.Query().Get("batch_id"); b != "" {
		batchID, err := strconv.ParseInt(b, 10, 64)
		if err != nil || batchID < 1 {
			return domain.RecordFilter{}, errors.New("invalid batch_id")
		}
		filter.BatchID = &batchID
	}

	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
