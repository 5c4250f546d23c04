package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the ledger service.
const LedgerServiceName = "trizum.ledger.v1.LedgerService"

// Procedure paths served by the ledger service.
const (
	CreatePartyProcedure     = "/" + LedgerServiceName + "/CreateParty"
	GetPartyProcedure        = "/" + LedgerServiceName + "/GetParty"
	CalculateSharesProcedure = "/" + LedgerServiceName + "/CalculateShares"
	AddExpenseProcedure      = "/" + LedgerServiceName + "/AddExpense"
	DeleteExpenseProcedure   = "/" + LedgerServiceName + "/DeleteExpense"
	ListExpensesProcedure    = "/" + LedgerServiceName + "/ListExpenses"
	GetBalancesProcedure     = "/" + LedgerServiceName + "/GetBalances"
)

// jsonCodec carries plain Go structs as JSON, replacing the default protojson
// codec under the same "json" name.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

func (jsonCodec) Unmarshal(data []byte, msg any) error { return json.Unmarshal(data, msg) }

// NewLedgerServiceHandler builds an HTTP handler serving every ledger procedure.
// It returns the path prefix to mount the handler on.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreatePartyProcedure, connect.NewUnaryHandler(CreatePartyProcedure, svc.CreateParty, opts...))
	mux.Handle(GetPartyProcedure, connect.NewUnaryHandler(GetPartyProcedure, svc.GetParty, opts...))
	mux.Handle(CalculateSharesProcedure, connect.NewUnaryHandler(CalculateSharesProcedure, svc.CalculateShares, opts...))
	mux.Handle(AddExpenseProcedure, connect.NewUnaryHandler(AddExpenseProcedure, svc.AddExpense, opts...))
	mux.Handle(DeleteExpenseProcedure, connect.NewUnaryHandler(DeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(ListExpensesProcedure, connect.NewUnaryHandler(ListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(GetBalancesProcedure, connect.NewUnaryHandler(GetBalancesProcedure, svc.GetBalances, opts...))

	return "/" + LedgerServiceName + "/", mux
}

// LedgerClient calls the ledger service over Connect.
type LedgerClient struct {
	createParty     *connect.Client[CreatePartyRequest, CreatePartyResponse]
	getParty        *connect.Client[GetPartyRequest, GetPartyResponse]
	calculateShares *connect.Client[CalculateSharesRequest, CalculateSharesResponse]
	addExpense      *connect.Client[AddExpenseRequest, AddExpenseResponse]
	deleteExpense   *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	listExpenses    *connect.Client[ListExpensesRequest, ListExpensesResponse]
	getBalances     *connect.Client[GetBalancesRequest, GetBalancesResponse]
}

// NewLedgerClient creates a client for the ledger service at baseURL.
func NewLedgerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &LedgerClient{
		createParty:     connect.NewClient[CreatePartyRequest, CreatePartyResponse](httpClient, baseURL+CreatePartyProcedure, opts...),
		getParty:        connect.NewClient[GetPartyRequest, GetPartyResponse](httpClient, baseURL+GetPartyProcedure, opts...),
		calculateShares: connect.NewClient[CalculateSharesRequest, CalculateSharesResponse](httpClient, baseURL+CalculateSharesProcedure, opts...),
		addExpense:      connect.NewClient[AddExpenseRequest, AddExpenseResponse](httpClient, baseURL+AddExpenseProcedure, opts...),
		deleteExpense:   connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+DeleteExpenseProcedure, opts...),
		listExpenses:    connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+ListExpensesProcedure, opts...),
		getBalances:     connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+GetBalancesProcedure, opts...),
	}
}

func (c *LedgerClient) CreateParty(ctx context.Context, req *connect.Request[CreatePartyRequest]) (*connect.Response[CreatePartyResponse], error) {
	return c.createParty.CallUnary(ctx, req)
}

func (c *LedgerClient) GetParty(ctx context.Context, req *connect.Request[GetPartyRequest]) (*connect.Response[GetPartyResponse], error) {
	return c.getParty.CallUnary(ctx, req)
}

func (c *LedgerClient) CalculateShares(ctx context.Context, req *connect.Request[CalculateSharesRequest]) (*connect.Response[CalculateSharesResponse], error) {
	return c.calculateShares.CallUnary(ctx, req)
}

func (c *LedgerClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *LedgerClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *LedgerClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *LedgerClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}
