package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/netutil"
)

const maxBodyBytes = 64 << 10

type handlers struct {
	d Deps
}

func (h *handlers) lookupVoter(w http.ResponseWriter, r *http.Request) {
	var req dto.LookupVoterRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.d.Registry.Lookup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) registerVoter(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterVoterRequest
	if !decode(w, r, &req) {
		return
	}
	ip, ua := netutil.ClientInfo(r)
	res, err := h.d.Registry.Register(r.Context(), req, ip, ua)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handlers) identify(w http.ResponseWriter, r *http.Request) {
	var req dto.IdentifyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.d.Broker.Identify(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) enrollBiometric(w http.ResponseWriter, r *http.Request) {
	var req dto.BiometricRegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Session == "" {
		req.Session = bearer(r)
	}
	ip, ua := netutil.ClientInfo(r)
	if err := h.d.Broker.EnrollBiometric(r.Context(), req, ip, ua); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *handlers) beginBiometric(w http.ResponseWriter, r *http.Request) {
	var req dto.BiometricChallengeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.d.Broker.BeginBiometric(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) finishBiometric(w http.ResponseWriter, r *http.Request) {
	var req dto.BiometricVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	ip, ua := netutil.ClientInfo(r)
	res, err := h.d.Broker.FinishBiometric(r.Context(), req, ip, ua)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.OTPSendRequest
	if !decode(w, r, &req) {
		return
	}
	ip, ua := netutil.ClientInfo(r)
	if err := h.d.Broker.SendOTP(r.Context(), req, ip, ua); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, struct{}{})
}

func (h *handlers) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.OTPVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	ip, ua := netutil.ClientInfo(r)
	res, err := h.d.Broker.VerifyOTP(r.Context(), req, ip, ua)
	if err != nil {
		writeOTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) catalog(w http.ResponseWriter, r *http.Request) {
	res, err := h.d.Catalog.Catalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) submitBallot(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitBallotRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Session == "" {
		req.Session = bearer(r)
	}
	ip, ua := netutil.ClientInfo(r)
	res, err := h.d.Committer.Commit(r.Context(), req, ip, ua)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "InvalidRequest", Message: "malformed JSON body"})
		return false
	}
	return true
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
