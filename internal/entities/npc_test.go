package entities_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/testutils"
	"github.com/driftlands/worldsim/internal/testutils/builders"
)

type NPCTestSuite struct {
	suite.Suite
}

func (s *NPCTestSuite) TestDialogueFallsBackToDefault() {
	vex := testutils.CreateTestMerchant("npc_vex")

	line, ok := vex.DialogueFor("weather")
	s.True(ok)
	s.Equal("Buying or selling?", line, "unknown topics fall back to the default line")

	silent := builders.NewNPCBuilder().Build()
	_, ok = silent.DialogueFor("weather")
	s.False(ok)
}

func (s *NPCTestSuite) TestDialoguePrefersExactTopic() {
	npc := builders.NewNPCBuilder().
		WithDialogue("default", "Move along.").
		WithDialogue("relic_shard", "Where did you find that?").
		Build()

	line, ok := npc.DialogueFor("relic_shard")
	s.True(ok)
	s.Equal("Where did you find that?", line)
}

func (s *NPCTestSuite) TestQuestByID() {
	fetch := entities.Quest{ID: "fetch_scrap", Title: "Scrap Run", Reward: 15}
	npc := builders.NewNPCBuilder().WithQuest(fetch).Build()

	got, ok := npc.QuestByID("fetch_scrap")
	s.True(ok)
	s.Equal(fetch, got)

	_, ok = npc.QuestByID("missing")
	s.False(ok)
}

func (s *NPCTestSuite) TestStocks() {
	npc := builders.NewNPCBuilder().
		AsMerchant().
		WithStock("scrap", "ration").
		Build()

	s.True(npc.Stocks("ration"))
	s.False(npc.Stocks("relic_shard"))
}

func (s *NPCTestSuite) TestCloneIsolatesMutations() {
	guard := testutils.CreateTestGuard("npc_brick")
	guard.Dialogues = map[string]string{"default": "Papers."}
	guard.Stock = []string{"baton"}

	clone := guard.Clone()
	clone.Dialogues["default"] = "Run."
	clone.Stock[0] = "rifle"
	clone.Quests = append(clone.Quests, entities.Quest{ID: "patrol"})

	s.Equal("Papers.", guard.Dialogues["default"])
	s.Equal("baton", guard.Stock[0])
	s.Empty(guard.Quests)
}

func TestNPCSuite(t *testing.T) {
	suite.Run(t, new(NPCTestSuite))
}
