package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Error envelope shared by every failure response: a stable message plus a
// human-readable detail.

func writeError(w http.ResponseWriter, r *http.Request, status int, message, detail string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("message")
	e.StrEscape(message)
	e.FieldStart("detail")
	e.StrEscape(detail)
	e.ObjEnd()
	writeBody(w, r, status, e)
}

// writeFieldErrors renders a validation failure with per-field detail.
func writeFieldErrors(w http.ResponseWriter, r *http.Request, message string, fields map[string]string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("message")
	e.StrEscape(message)
	e.FieldStart("detail")
	e.ObjStart()
	for f, msg := range fields {
		e.FieldStart(f)
		e.StrEscape(msg)
	}
	e.ObjEnd()
	e.ObjEnd()
	writeBody(w, r, http.StatusBadRequest, e)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)
	writeBody(w, r, status, e)
}

func writeBody(w http.ResponseWriter, r *http.Request, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(r.Context()).Debug("Write response", zap.Error(err))
	}
}

// readBody decodes the request body into a jx decoder, capped at 1 MiB.
func readBody(r *http.Request) (*jx.Decoder, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return jx.DecodeBytes(data), nil
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}
