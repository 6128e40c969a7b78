package rpc

import (
	"net/http"

	"autonchain/native/vault"
)

type initializeVaultParams struct {
	Caller            string `json:"caller"`
	VaultWallet       string `json:"vaultWallet"`
	FeeBps            uint64 `json:"feeBps"`
	SponsorshipAmount uint64 `json:"sponsorshipAmount"`
}

type updateVaultAdminParams struct {
	Caller   string `json:"caller"`
	NewAdmin string `json:"newAdmin"`
}

type updateVaultFeeParams struct {
	Caller string `json:"caller"`
	FeeBps uint64 `json:"feeBps"`
}

type updateVaultSponsorshipParams struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

type withdrawVaultParams struct {
	Caller    string `json:"caller"`
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
}

type vaultStateResult struct {
	VaultWallet       string `json:"vaultWallet"`
	Admin             string `json:"admin"`
	FeeBps            uint64 `json:"feeBps"`
	SponsorshipAmount uint64 `json:"sponsorshipAmount"`
	TotalCollected    string `json:"totalCollected"`
	TotalSponsored    string `json:"totalSponsored"`
}

type withdrawVaultResult struct {
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
}

func formatVaultState(st *vault.State) vaultStateResult {
	out := vaultStateResult{
		VaultWallet:       formatAddress(st.VaultWallet),
		Admin:             formatAddress(st.Admin),
		FeeBps:            st.FeeBps,
		SponsorshipAmount: st.SponsorshipAmount,
		TotalCollected:    "0",
		TotalSponsored:    "0",
	}
	if st.TotalCollected != nil {
		out.TotalCollected = st.TotalCollected.String()
	}
	if st.TotalSponsored != nil {
		out.TotalSponsored = st.TotalSponsored.String()
	}
	return out
}

func (s *Server) handleInitializeVault(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params initializeVaultParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	wallet, err := decodeBech32(params.VaultWallet)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid vault wallet address", err.Error())
		return
	}
	st, err := s.node.InitializeVault(caller, wallet, params.FeeBps, params.SponsorshipAmount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatVaultState(st))
}

func (s *Server) handleUpdateVaultAdmin(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params updateVaultAdminParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	newAdmin, err := decodeBech32(params.NewAdmin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid new admin address", err.Error())
		return
	}
	st, err := s.node.UpdateVaultAdmin(caller, newAdmin)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatVaultState(st))
}

func (s *Server) handleUpdateVaultFeeBps(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params updateVaultFeeParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	st, err := s.node.UpdateVaultFeeBps(caller, params.FeeBps)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatVaultState(st))
}

func (s *Server) handleUpdateVaultSponsorshipAmount(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params updateVaultSponsorshipParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	st, err := s.node.UpdateVaultSponsorshipAmount(caller, params.Amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatVaultState(st))
}

func (s *Server) handleWithdrawFromVault(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params withdrawVaultParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	recipient, err := decodeBech32(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	if err := s.node.WithdrawFromVault(caller, params.Amount, recipient); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, withdrawVaultResult{Amount: params.Amount, Recipient: params.Recipient})
}

func (s *Server) handleVaultInfo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	st, err := s.node.VaultInfo()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatVaultState(st))
}
