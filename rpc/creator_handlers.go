package rpc

import (
	"encoding/hex"
	"net/http"
	"strings"

	"autonchain/native/creator"
)

type registerUsernameParams struct {
	Caller   string `json:"caller"`
	Username string `json:"username"`
}

type initializeCreatorParams struct {
	Caller string `json:"caller"`
}

type addContentParams struct {
	Caller         string `json:"caller"`
	Title          string `json:"title"`
	Price          uint64 `json:"price"`
	PayloadLocator string `json:"payloadLocator,omitempty"`
}

type processPaymentParams struct {
	Caller    string `json:"caller"`
	Creator   string `json:"creator"`
	ContentID uint64 `json:"contentId"`
}

type getCreatorParams struct {
	Creator string `json:"creator"`
}

type resolveUsernameParams struct {
	Username string `json:"username"`
}

type hasAccessParams struct {
	Buyer     string `json:"buyer"`
	ContentID uint64 `json:"contentId"`
}

type getBalanceParams struct {
	Address string `json:"address"`
}

type usernameResult struct {
	Username string `json:"username"`
	Owner    string `json:"owner"`
}

type contentItemResult struct {
	ID             uint64 `json:"id"`
	Title          string `json:"title"`
	Price          uint64 `json:"price"`
	PayloadLocator string `json:"payloadLocator,omitempty"`
}

type creatorAccountResult struct {
	Creator       string              `json:"creator"`
	LastContentID uint64              `json:"lastContentId"`
	Content       []contentItemResult `json:"content"`
}

type paymentResult struct {
	Content contentItemResult `json:"content"`
	Fee     string            `json:"fee"`
}

type hasAccessResult struct {
	Buyer     string `json:"buyer"`
	ContentID uint64 `json:"contentId"`
	HasAccess bool   `json:"hasAccess"`
}

type balanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func formatContentItem(item *creator.ContentItem) contentItemResult {
	out := contentItemResult{ID: item.ID, Title: item.Title, Price: item.Price}
	if len(item.PayloadLocator) > 0 {
		out.PayloadLocator = "0x" + hex.EncodeToString(item.PayloadLocator)
	}
	return out
}

func formatCreatorAccount(acc *creator.CreatorAccount) creatorAccountResult {
	out := creatorAccountResult{
		Creator:       formatAddress(acc.Creator),
		LastContentID: acc.LastContentID,
		Content:       make([]contentItemResult, 0, len(acc.Content)),
	}
	for i := range acc.Content {
		out.Content = append(out.Content, formatContentItem(&acc.Content[i]))
	}
	return out
}

func decodeLocator(value string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if trimmed == "" {
		return nil, nil
	}
	return hex.DecodeString(trimmed)
}

func (s *Server) handleRegisterUsername(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registerUsernameParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	rec, err := s.node.RegisterUsername(caller, strings.TrimSpace(params.Username))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, usernameResult{Username: rec.Username, Owner: formatAddress(rec.Owner)})
}

func (s *Server) handleInitializeCreator(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params initializeCreatorParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	acc, err := s.node.InitializeCreator(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatCreatorAccount(acc))
}

func (s *Server) handleAddContent(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params addContentParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	locator, err := decodeLocator(params.PayloadLocator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payload locator", err.Error())
		return
	}
	item, err := s.node.AddContent(caller, params.Title, params.Price, locator)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatContentItem(item))
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params processPaymentParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	buyer, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	creatorAddr, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	result, err := s.node.ProcessPayment(buyer, creatorAddr, params.ContentID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, paymentResult{
		Content: formatContentItem(result.Item),
		Fee:     result.Fee.String(),
	})
}

func (s *Server) handleGetCreator(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params getCreatorParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	creatorAddr, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	acc, ok, err := s.node.GetCreator(creatorAddr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "creator not found", nil)
		return
	}
	writeResult(w, req.ID, formatCreatorAccount(acc))
}

func (s *Server) handleResolveUsername(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params resolveUsernameParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	rec, ok, err := s.node.ResolveUsername(strings.TrimSpace(params.Username))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "username not found", nil)
		return
	}
	writeResult(w, req.ID, usernameResult{Username: rec.Username, Owner: formatAddress(rec.Owner)})
}

func (s *Server) handleHasAccess(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params hasAccessParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	buyer, err := decodeBech32(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid buyer address", err.Error())
		return
	}
	ok, err := s.node.HasAccess(buyer, params.ContentID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, hasAccessResult{Buyer: params.Buyer, ContentID: params.ContentID, HasAccess: ok})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params getBalanceParams
	if err := unmarshalSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address parameter", err.Error())
		return
	}
	balance, err := s.node.BalanceOf(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Address: params.Address, Balance: balance.String()})
}
