package kafka

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

// Engine runs the three request flows
type Engine interface {
	Simulate(ctx context.Context, req models.AllocationRequest) (models.PortfolioResult, error)
	AssessRisk(ctx context.Context, req models.AllocationRequest) (models.RiskAssessment, error)
	Suggest(ctx context.Context, req models.SuggestionRequest) (models.OptimizedAllocation, error)
}

// Publisher sends a JSON value under a key
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v interface{}) error
}

// Worker turns request envelopes into result envelopes
type Worker struct {
	engine    Engine
	publisher Publisher
	log       *logger.Logger
}

// NewWorker creates a worker publishing results through publisher
func NewWorker(engine Engine, publisher Publisher) *Worker {
	return &Worker{
		engine:    engine,
		publisher: publisher,
		log:       logger.GetLogger("kafka.worker"),
	}
}

// HandleMessage is a MessageHandler. Request failures are published as error
// responses; only publish failures are returned, and the consumer handles the
// same message again until publishing succeeds.
func (w *Worker) HandleMessage(ctx context.Context, msg *Message) error {
	req, err := DecodeRequest(msg.Value)
	if err != nil {
		w.log.Warnw("Dropping malformed request", "offset", msg.Offset, "error", err)
		return w.publisher.PublishJSON(ctx, string(msg.Key), NewErrorResponse(string(msg.Key), "", err))
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	resp := w.Process(ctx, req)
	if resp.Error != nil {
		w.log.Warnw("Request failed", "id", req.ID, "kind", req.Kind, "type", resp.Error.Type)
	} else {
		w.log.Infow("Request completed", "id", req.ID, "kind", req.Kind)
	}
	return w.publisher.PublishJSON(ctx, req.ID, resp)
}

// Process dispatches req by kind and wraps the outcome in a response
func (w *Worker) Process(ctx context.Context, req Request) Response {
	result, err := w.dispatch(ctx, req)
	if err != nil {
		return NewErrorResponse(req.ID, req.Kind, err)
	}
	return Response{ID: req.ID, Kind: req.Kind, Result: result}
}

func (w *Worker) dispatch(ctx context.Context, req Request) (interface{}, error) {
	switch req.Kind {
	case KindSimulate, KindRisk:
		var alloc models.AllocationRequest
		if err := json.Unmarshal(req.Payload, &alloc); err != nil {
			return nil, errors.InvalidArgumentf("invalid %s payload: %v", req.Kind, err)
		}
		if req.Kind == KindSimulate {
			return w.engine.Simulate(ctx, alloc)
		}
		return w.engine.AssessRisk(ctx, alloc)
	case KindSuggestions:
		var sugg models.SuggestionRequest
		if err := json.Unmarshal(req.Payload, &sugg); err != nil {
			return nil, errors.InvalidArgumentf("invalid %s payload: %v", req.Kind, err)
		}
		return w.engine.Suggest(ctx, sugg)
	default:
		return nil, errors.InvalidArgumentf("unknown request kind %q", req.Kind)
	}
}
