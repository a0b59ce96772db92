package oracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/clients/oracle"
	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	"github.com/driftlands/worldsim/internal/worldstate"
)

type ScriptedTestSuite struct {
	suite.Suite
	oracle *oracle.Scripted
	ctx    context.Context
}

func (s *ScriptedTestSuite) SetupTest() {
	scripted, err := oracle.NewScripted(&oracle.ScriptedConfig{
		IDGenerator: idgen.NewSequential("npc"),
	})
	s.Require().NoError(err)
	s.oracle = scripted
	s.ctx = context.Background()
}

func (s *ScriptedTestSuite) TestProposePlanParsesFreeText() {
	tests := []struct {
		name string
		text string
		want oracle.Plan
	}{
		{
			name: "move with alias and stopwords",
			text: "go to the gate",
			want: oracle.Plan{Verb: "move", Target: "gate", Risk: 0.1},
		},
		{
			name: "withdraw amount",
			text: "withdraw 250",
			want: oracle.Plan{Verb: "withdraw", Amount: 250, Risk: 0.1},
		},
		{
			name: "buy names the goods",
			text: "buy scrap",
			want: oracle.Plan{Verb: "buy", Item: "scrap", Risk: 0.1},
		},
		{
			name: "buy with counterparty",
			text: "buy scrap from vex",
			want: oracle.Plan{Verb: "buy", Item: "scrap", Target: "vex", Risk: 0.1},
		},
		{
			name: "sell with amount",
			text: "sell 3 scrap",
			want: oracle.Plan{Verb: "sell", Amount: 3, Item: "scrap", Risk: 0.1},
		},
		{
			name: "attack alias",
			text: "hit vex",
			want: oracle.Plan{Verb: "attack", Target: "vex", Risk: 0.1},
		},
		{
			name: "unknown verb passes through",
			text: "juggle",
			want: oracle.Plan{Verb: "juggle", Risk: 0.1},
		},
		{
			name: "case folds",
			text: "LOOK",
			want: oracle.Plan{Verb: "observe", Risk: 0.1},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			out, err := s.oracle.ProposePlan(s.ctx, &oracle.ProposePlanInput{
				ActorID:  "player_1",
				FreeText: tc.text,
			})
			s.Require().NoError(err)
			s.Equal(tc.want, *out.Plan)
		})
	}
}

func (s *ScriptedTestSuite) TestProposePlanKeepsReportNotes() {
	out, err := s.oracle.ProposePlan(s.ctx, &oracle.ProposePlanInput{
		ActorID:  "player_1",
		FreeText: "report the market stole my credits",
	})
	s.Require().NoError(err)

	s.Equal("report", out.Plan.Verb)
	s.Equal("the market stole my credits", out.Plan.Notes)
}

func (s *ScriptedTestSuite) TestAutonomyAlternatesObserveAndDrift() {
	room := &entities.Room{
		ID:        "crossing",
		Neighbors: []string{"north_cut", "south_cut"},
	}

	var verbs []string
	var targets []string
	for i := 0; i < 4; i++ {
		out, err := s.oracle.ProposePlan(s.ctx, &oracle.ProposePlanInput{
			ActorID: "npc_1",
			Room:    room,
		})
		s.Require().NoError(err)
		verbs = append(verbs, out.Plan.Verb)
		targets = append(targets, out.Plan.Target)
	}

	s.Equal([]string{"observe", "move", "observe", "move"}, verbs)
	s.Equal("north_cut", targets[1])
	s.Equal("south_cut", targets[3])
}

func (s *ScriptedTestSuite) TestAutonomyObservesWhenRoomHasNoExits() {
	for i := 0; i < 3; i++ {
		out, err := s.oracle.ProposePlan(s.ctx, &oracle.ProposePlanInput{
			ActorID: "npc_2",
			Room:    &entities.Room{ID: "oubliette"},
		})
		s.Require().NoError(err)
		s.Equal("observe", out.Plan.Verb)
	}
}

func (s *ScriptedTestSuite) TestAutonomyTracksActorsIndependently() {
	out1, err := s.oracle.ProposePlan(s.ctx, &oracle.ProposePlanInput{ActorID: "npc_a"})
	s.Require().NoError(err)
	out2, err := s.oracle.ProposePlan(s.ctx, &oracle.ProposePlanInput{ActorID: "npc_b"})
	s.Require().NoError(err)

	// Both actors are on their first turn, so both observe.
	s.Equal("observe", out1.Plan.Verb)
	s.Equal("observe", out2.Plan.Verb)
}

func (s *ScriptedTestSuite) TestGenerateWorldAppliesCleanly() {
	out, err := s.oracle.GenerateWorld(s.ctx, &oracle.GenerateWorldInput{Theme: "rust flats"})
	s.Require().NoError(err)

	s.Require().Len(out.Spec.Cities, 1)
	s.Equal("rust_flats", out.Spec.Cities[0].ID)
	s.Equal("Rust flats", out.Spec.Cities[0].Name)

	store, err := worldstate.New(&worldstate.Config{
		Clock:              clock.New(),
		IDGenerator:        idgen.NewSequential("ev"),
		SpawnRoomID:        "rust_flats_square",
		WildFallbackRoomID: "rust_flats_drift",
	})
	s.Require().NoError(err)

	err = store.Update(func(w *worldstate.World) error {
		return w.ApplyWorld(out.Spec)
	})
	s.Require().NoError(err)
}

func (s *ScriptedTestSuite) TestGenerateNPCDefaultsToDrifter() {
	out, err := s.oracle.GenerateNPC(s.ctx, &oracle.GenerateNPCInput{RoomID: "crossing"})
	s.Require().NoError(err)

	s.Equal(entities.RoleDrifter, out.NPC.Role)
	s.Equal("crossing", out.NPC.Location)
	s.NotEmpty(out.NPC.ID)
	s.NotEmpty(out.NPC.Dialogues["default"])
}

func (s *ScriptedTestSuite) TestTranslateTrims() {
	out, err := s.oracle.Translate(s.ctx, &oracle.TranslateInput{
		Title:  "  dust storm  ",
		Detail: " caravans shelter ",
	})
	s.Require().NoError(err)

	s.Equal("dust storm", out.Title)
	s.Equal("caravans shelter", out.Detail)
}

func (s *ScriptedTestSuite) TestReviseCityPolicyHoldsCourse() {
	out, err := s.oracle.ReviseCityPolicy(s.ctx, &oracle.ReviseCityPolicyInput{
		City: &entities.City{ID: "haven"},
	})
	s.Require().NoError(err)

	s.Nil(out.Policy)
	s.NotEmpty(out.Rationale)
}

func TestScriptedSuite(t *testing.T) {
	suite.Run(t, new(ScriptedTestSuite))
}
