package rpc

import (
	"net/http"

	"autonchain/native/sponsor"
)

type initializeSponsoredUserParams struct {
	User string `json:"user"`
}

type sponsorUserParams struct {
	Caller string `json:"caller"`
	User   string `json:"user"`
	Amount uint64 `json:"amount"`
}

type sponsoredUserResult struct {
	User        string `json:"user"`
	Sponsored   bool   `json:"sponsored"`
	SponsoredAt uint64 `json:"sponsoredAt"`
	Amount      uint64 `json:"amount"`
}

func formatSponsoredUser(rec *sponsor.SponsoredUserRecord) sponsoredUserResult {
	return sponsoredUserResult{
		User:        formatAddress(rec.User),
		Sponsored:   rec.Sponsored,
		SponsoredAt: rec.SponsoredAt,
		Amount:      rec.Amount,
	}
}

func (s *Server) handleInitializeSponsoredUser(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params initializeSponsoredUserParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", err.Error())
		return
	}
	rec, err := s.node.InitializeSponsoredUser(user)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSponsoredUser(rec))
}

func (s *Server) handleSponsorUser(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params sponsorUserParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", err.Error())
		return
	}
	rec, err := s.node.SponsorUser(caller, user, params.Amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSponsoredUser(rec))
}
