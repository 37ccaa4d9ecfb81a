package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/pocketcal/internal/backup"
	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/storage"
)

// PassphraseHeader carries the passphrase when a backup is posted as a raw body.
const PassphraseHeader = "X-Backup-Passphrase"

type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, logger: logger}
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	data, err := h.manager.Create(r.Context(), req.Passphrase)
	if errors.Is(err, backup.ErrNoPassphrase) {
		writeError(w, http.StatusBadRequest, "passphrase is required")
		return
	}
	if err != nil {
		h.logger.Error("failed to create backup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create backup")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="pocketcal.bak"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// Restore accepts either a multipart form with "file" and "passphrase"
// fields or a raw body with the passphrase in PassphraseHeader.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	data, passphrase, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read backup")
		return
	}

	n, err := h.manager.Restore(r.Context(), data, passphrase)
	var verr *model.ValidationError
	var serr *storage.StorageError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]int{"restored": n})
	case errors.Is(err, backup.ErrNoPassphrase):
		writeError(w, http.StatusBadRequest, "passphrase is required")
	case errors.Is(err, backup.ErrDecrypt), errors.Is(err, backup.ErrTooSmall):
		writeError(w, http.StatusBadRequest, "wrong passphrase or corrupted backup")
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "backup contains invalid events",
			"fields": verr.Fields,
		})
	case errors.As(err, &serr):
		h.logger.Error("restored events not saved", "reason", serr.Reason, "error", serr.Err)
		writeError(w, http.StatusInsufficientStorage, serr.Message())
	default:
		h.logger.Warn("restore rejected", "error", err)
		writeError(w, http.StatusBadRequest, "backup could not be restored")
	}
}

func (h *BackupHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := r.ParseMultipartForm(maxBodyBytes); err == nil {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		return data, r.FormValue("passphrase"), err
	} else if !errors.Is(err, http.ErrNotMultipart) {
		return nil, "", err
	}

	data, err := io.ReadAll(r.Body)
	return data, r.Header.Get(PassphraseHeader), err
}
