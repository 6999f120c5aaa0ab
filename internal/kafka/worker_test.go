package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	simulated []models.AllocationRequest
	err       error
}

func (f *fakeEngine) Simulate(ctx context.Context, req models.AllocationRequest) (models.PortfolioResult, error) {
	f.simulated = append(f.simulated, req)
	if f.err != nil {
		return models.PortfolioResult{}, f.err
	}
	return models.PortfolioResult{FinalValue: 12345.67}, nil
}

func (f *fakeEngine) AssessRisk(ctx context.Context, req models.AllocationRequest) (models.RiskAssessment, error) {
	return models.RiskAssessment{RiskScore: 4.2}, f.err
}

func (f *fakeEngine) Suggest(ctx context.Context, req models.SuggestionRequest) (models.OptimizedAllocation, error) {
	return models.OptimizedAllocation{Allocation: map[string]float64{"stocks": 100}}, f.err
}

type published struct {
	key   string
	value []byte
}

type fakePublisher struct {
	messages []published
}

func (p *fakePublisher) PublishJSON(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.messages = append(p.messages, published{key: key, value: b})
	return nil
}

func decodeResponse(t *testing.T, b []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestWorkerSimulate(t *testing.T) {
	engine := &fakeEngine{}
	pub := &fakePublisher{}
	w := NewWorker(engine, pub)

	payload := `{"id":"req-1","kind":"simulate","payload":{"investment_amount":10000,"duration":5,"risk_appetite":0.5,"market_condition":"neutral","stocks":100}}`
	require.NoError(t, w.HandleMessage(context.Background(), &Message{Value: []byte(payload)}))

	require.Len(t, engine.simulated, 1)
	assert.Equal(t, 10000.0, engine.simulated[0].InvestmentAmount)
	assert.Equal(t, 100.0, engine.simulated[0].Stocks)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "req-1", pub.messages[0].key)
	resp := decodeResponse(t, pub.messages[0].value)
	assert.Equal(t, "simulate", resp["kind"])
	assert.Nil(t, resp["error"])
	result := resp["result"].(map[string]interface{})
	assert.Equal(t, 12345.67, result["Final Total Portfolio Value"])
}

func TestWorkerPublishesErrors(t *testing.T) {
	engine := &fakeEngine{err: errors.NotFound("no historical data for bonds")}
	pub := &fakePublisher{}
	w := NewWorker(engine, pub)

	resp := w.Process(context.Background(), Request{ID: "r", Kind: KindRisk, Payload: json.RawMessage(`{}`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Type)

	resp = w.Process(context.Background(), Request{ID: "r", Kind: "rebalance"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_argument", resp.Error.Type)

	resp = w.Process(context.Background(), Request{ID: "r", Kind: KindSuggestions, Payload: json.RawMessage(`[1,2]`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_argument", resp.Error.Type)
}

func TestWorkerMalformedEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWorker(&fakeEngine{}, pub)

	require.NoError(t, w.HandleMessage(context.Background(), &Message{Key: []byte("k"), Value: []byte("not json")}))
	require.Len(t, pub.messages, 1)
	resp := decodeResponse(t, pub.messages[0].value)
	errBody := resp["error"].(map[string]interface{})
	assert.Equal(t, "invalid_argument", errBody["type"])
}

func TestWorkerAssignsID(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWorker(&fakeEngine{}, pub)

	msg := &Message{Value: []byte(`{"kind":"portfolio_suggestions","payload":{}}`)}
	require.NoError(t, w.HandleMessage(context.Background(), msg))
	require.Len(t, pub.messages, 1)
	assert.NotEmpty(t, pub.messages[0].key)
	resp := decodeResponse(t, pub.messages[0].value)
	assert.Equal(t, pub.messages[0].key, resp["id"])
}
