package oracle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/clients/oracle"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
)

// fakeCompleter plays back a canned completion, recording what it was asked.
type fakeCompleter struct {
	completion []byte
	err        error

	lastTask    string
	lastPayload []byte
}

func (f *fakeCompleter) Complete(_ context.Context, task string, payload []byte) ([]byte, error) {
	f.lastTask = task
	f.lastPayload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.completion, nil
}

type ClientTestSuite struct {
	suite.Suite
	completer *fakeCompleter
	client    oracle.Client
	ctx       context.Context
}

func (s *ClientTestSuite) SetupTest() {
	s.completer = &fakeCompleter{}
	client, err := oracle.NewClient(&oracle.Config{Completer: s.completer})
	s.Require().NoError(err)
	s.client = client
	s.ctx = context.Background()
}

func (s *ClientTestSuite) TestNewClientRequiresCompleter() {
	_, err := oracle.NewClient(&oracle.Config{})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *ClientTestSuite) TestProposePlan() {
	s.completer.completion = []byte(`{"verb":"move","target":"haven_gate","risk":0.2}`)

	out, err := s.client.ProposePlan(s.ctx, &oracle.ProposePlanInput{
		ActorID:  "player_1",
		FreeText: "head for the gate",
	})
	s.Require().NoError(err)

	s.Equal("move", out.Plan.Verb)
	s.Equal("haven_gate", out.Plan.Target)
	s.InDelta(0.2, out.Plan.Risk, 1e-9)
	s.Equal(oracle.TaskPlan, s.completer.lastTask)
	s.Contains(string(s.completer.lastPayload), `"head for the gate"`)
}

func (s *ClientTestSuite) TestProposePlanRejectsMalformedJSON() {
	s.completer.completion = []byte(`move to the gate, obviously`)

	_, err := s.client.ProposePlan(s.ctx, &oracle.ProposePlanInput{ActorID: "player_1"})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *ClientTestSuite) TestProposePlanRejectsSchemaViolation() {
	tests := []struct {
		name       string
		completion string
	}{
		{name: "missing verb", completion: `{"target":"haven_gate"}`},
		{name: "empty verb", completion: `{"verb":""}`},
		{name: "risk out of range", completion: `{"verb":"move","risk":2.5}`},
		{name: "unknown field", completion: `{"verb":"move","mind_control":true}`},
		{name: "wrong amount type", completion: `{"verb":"withdraw","amount":"all of it"}`},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.completer.completion = []byte(tc.completion)
			_, err := s.client.ProposePlan(s.ctx, &oracle.ProposePlanInput{ActorID: "player_1"})
			s.Require().Error(err)
			s.True(errors.IsInvalidArgument(err), "want InvalidArgument, got %v", err)
		})
	}
}

func (s *ClientTestSuite) TestCompleterFailureIsUnavailable() {
	s.completer.err = errors.Internal("model fell over")

	_, err := s.client.ProposePlan(s.ctx, &oracle.ProposePlanInput{ActorID: "player_1"})
	s.Require().Error(err)
	s.True(errors.IsUnavailable(err))
}

func (s *ClientTestSuite) TestTimeoutSurfacesAsDeadlineExceeded() {
	ctx, cancel := context.WithDeadline(s.ctx, time.Now().Add(-time.Second))
	defer cancel()
	s.completer.err = ctx.Err()

	_, err := s.client.ProposePlan(ctx, &oracle.ProposePlanInput{ActorID: "player_1"})
	s.Require().Error(err)
	s.True(errors.IsDeadlineExceeded(err))
}

func (s *ClientTestSuite) TestGenerateWorld() {
	s.completer.completion = []byte(`{
		"rooms": [
			{"id": "gulch", "name": "The Gulch", "zone": "wild", "neighbors": ["gulch_mouth"]},
			{"id": "gulch_mouth", "name": "Gulch Mouth", "zone": "city", "city_id": "sink", "neighbors": ["gulch"]}
		],
		"cities": [{"id": "sink", "name": "The Sink"}]
	}`)

	out, err := s.client.GenerateWorld(s.ctx, &oracle.GenerateWorldInput{Theme: "canyon"})
	s.Require().NoError(err)

	s.Len(out.Spec.Rooms, 2)
	s.Len(out.Spec.Cities, 1)
	s.Equal(entities.ZoneWild, out.Spec.Rooms[0].Zone)
	s.Equal("sink", out.Spec.Rooms[1].CityID)
}

func (s *ClientTestSuite) TestGenerateWorldRejectsBadZone() {
	s.completer.completion = []byte(`{"rooms":[{"id":"gulch","name":"The Gulch","zone":"underdark"}]}`)

	_, err := s.client.GenerateWorld(s.ctx, &oracle.GenerateWorldInput{})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *ClientTestSuite) TestGenerateNPC() {
	s.completer.completion = []byte(`{
		"id": "npc_vex",
		"name": "Vex",
		"role": "merchant",
		"location": "haven_market",
		"dialogues": {"default": "Coin first."},
		"stock": ["scrap"]
	}`)

	out, err := s.client.GenerateNPC(s.ctx, &oracle.GenerateNPCInput{RoomID: "haven_market", Role: "merchant"})
	s.Require().NoError(err)

	s.Equal("npc_vex", out.NPC.ID)
	s.Equal(entities.RoleMerchant, out.NPC.Role)
	s.Equal([]string{"scrap"}, out.NPC.Stock)
}

func (s *ClientTestSuite) TestGenerateNPCRejectsMissingName() {
	s.completer.completion = []byte(`{"id":"npc_vex"}`)

	_, err := s.client.GenerateNPC(s.ctx, &oracle.GenerateNPCInput{})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *ClientTestSuite) TestTranslate() {
	s.completer.completion = []byte(`{
		"title": "Dust storm over the drifts",
		"detail": "Trade caravans shelter in Haven.",
		"glossary": {"drifts": "the wild zone outside Haven"}
	}`)

	out, err := s.client.Translate(s.ctx, &oracle.TranslateInput{Title: "dust storm!!"})
	s.Require().NoError(err)

	s.Equal("Dust storm over the drifts", out.Title)
	s.Equal("the wild zone outside Haven", out.Glossary["drifts"])
}

func (s *ClientTestSuite) TestReviseCityPolicy() {
	s.completer.completion = []byte(`{
		"policy": {"safety_level": 0.8, "pvp": {"enabled": false}},
		"rationale": "raiders on the road"
	}`)

	city := &entities.City{ID: "haven", Name: "Haven"}
	out, err := s.client.ReviseCityPolicy(s.ctx, &oracle.ReviseCityPolicyInput{City: city})
	s.Require().NoError(err)

	s.Require().NotNil(out.Policy)
	s.InDelta(0.8, out.Policy.SafetyLevel, 1e-9)
	s.Equal("raiders on the road", out.Rationale)
}

func (s *ClientTestSuite) TestReviseCityPolicyRejectsOutOfRangeSafety() {
	s.completer.completion = []byte(`{"policy":{"safety_level":7}}`)

	_, err := s.client.ReviseCityPolicy(s.ctx, &oracle.ReviseCityPolicyInput{
		City: &entities.City{ID: "haven"},
	})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}
