// Package oracle is the boundary to the external planning collaborator: a
// language-model service that parses intents into plans, generates world
// content, and normalizes event text. The kernel only ever consumes it
// through the Client interface, and every completion is schema-validated
// before it is decoded, so a malformed or adversarial completion cannot
// reach world state.
package oracle

//go:generate mockgen -destination=mock/mock_client.go -package=oraclemock github.com/driftlands/worldsim/internal/clients/oracle Client

import (
	"context"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/driftlands/worldsim/internal/errors"
)

// Task names sent to the completer alongside the serialized payload.
const (
	TaskPlan      = "plan"
	TaskWorld     = "world"
	TaskNPC       = "npc"
	TaskTranslate = "translate"
	TaskPolicy    = "policy"
)

// Client defines the planning-oracle operations the kernel consumes.
type Client interface {
	// ProposePlan turns free text or an actor's situation into a plan.
	ProposePlan(ctx context.Context, input *ProposePlanInput) (*ProposePlanOutput, error)

	// GenerateWorld produces a world graph for apply/merge.
	GenerateWorld(ctx context.Context, input *GenerateWorldInput) (*GenerateWorldOutput, error)

	// GenerateNPC produces a single NPC record for upsert.
	GenerateNPC(ctx context.Context, input *GenerateNPCInput) (*GenerateNPCOutput, error)

	// Translate normalizes event text and grows the glossary.
	Translate(ctx context.Context, input *TranslateInput) (*TranslateOutput, error)

	// ReviseCityPolicy proposes a revised base policy for a city.
	ReviseCityPolicy(ctx context.Context, input *ReviseCityPolicyInput) (*ReviseCityPolicyOutput, error)
}

// Completer is the raw completion transport: given a task name and a JSON
// payload, it returns the model's JSON completion. The actual LLM transport
// lives outside this repository.
type Completer interface {
	Complete(ctx context.Context, task string, payload []byte) ([]byte, error)
}

// Config holds the dependencies for the completer-backed client
type Config struct {
	Completer Completer
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Completer == nil {
		vb.RequiredField("Completer")
	}

	return vb.Build()
}

type client struct {
	completer Completer
	schemas   map[string]*jsonschema.Schema
}

// NewClient creates an oracle client that sends each request through the
// completer and refuses any completion that fails its task's JSON schema.
func NewClient(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	schemas, err := compileSchemas()
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile oracle schemas")
	}

	return &client{
		completer: cfg.Completer,
		schemas:   schemas,
	}, nil
}

// Ensure client implements Client
var _ Client = (*client)(nil)

func (c *client) ProposePlan(ctx context.Context, input *ProposePlanInput) (*ProposePlanOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	var plan Plan
	if err := c.complete(ctx, TaskPlan, input, &plan); err != nil {
		return nil, err
	}
	return &ProposePlanOutput{Plan: &plan}, nil
}

func (c *client) GenerateWorld(ctx context.Context, input *GenerateWorldInput) (*GenerateWorldOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	var out GenerateWorldOutput
	if err := c.complete(ctx, TaskWorld, input, &out.Spec); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) GenerateNPC(ctx context.Context, input *GenerateNPCInput) (*GenerateNPCOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	var out GenerateNPCOutput
	if err := c.complete(ctx, TaskNPC, input, &out.NPC); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Translate(ctx context.Context, input *TranslateInput) (*TranslateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	var out TranslateOutput
	if err := c.complete(ctx, TaskTranslate, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) ReviseCityPolicy(ctx context.Context, input *ReviseCityPolicyInput) (*ReviseCityPolicyOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.City == nil {
		return nil, errors.InvalidArgument("city is required")
	}

	var out ReviseCityPolicyOutput
	if err := c.complete(ctx, TaskPolicy, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// complete runs one request through the completer and decodes the
// completion into out, but only after it passes the task's schema.
func (c *client) complete(ctx context.Context, task string, input, out any) error {
	payload, err := json.Marshal(input)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s payload", task)
	}

	raw, err := c.completer.Complete(ctx, task, payload)
	if err != nil {
		if ctx.Err() != nil {
			return errors.WrapWithCodef(err, errors.CodeDeadlineExceeded, "oracle %s call timed out", task)
		}
		return errors.WrapWithCodef(err, errors.CodeUnavailable, "oracle %s call failed", task)
	}

	var loose any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return errors.WrapWithCodef(err, errors.CodeInvalidArgument, "oracle %s completion is not valid JSON", task)
	}
	if err := c.schemas[task].Validate(loose); err != nil {
		return errors.WrapWithCodef(err, errors.CodeInvalidArgument, "oracle %s completion failed schema validation", task)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.WrapWithCodef(err, errors.CodeInvalidArgument, "failed to decode oracle %s completion", task)
	}
	return nil
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	sources := map[string]string{
		TaskPlan:      planSchema,
		TaskWorld:     worldSchema,
		TaskNPC:       npcSchema,
		TaskTranslate: translateSchema,
		TaskPolicy:    policySchema,
	}

	schemas := make(map[string]*jsonschema.Schema, len(sources))
	for task, src := range sources {
		sch, err := jsonschema.CompileString(task+".schema.json", src)
		if err != nil {
			return nil, errors.Wrapf(err, "schema %q does not compile", task)
		}
		schemas[task] = sch
	}
	return schemas, nil
}
