package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talesim/internal/diag"
	"talesim/internal/registry"
	"talesim/internal/template"
	"talesim/internal/world"
)

type fixture struct {
	w                  *world.World
	alice, bob, carol  registry.ID
	knight, villager   registry.ID
	friends, rivalries string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := world.New()
	she := w.Pronouns.Set("she", world.Pronouns{Subject: "she", Object: "her", Possessive: "her", Reflexive: "herself", Tense: "present"})

	add := func(key, name string, attrs []string, props map[string]string) registry.ID {
		a := world.NewActor(name)
		a.Pronouns = she
		a.Attrs = world.NewTags(attrs...)
		for k, v := range props {
			a.Props[k] = v
		}
		return w.Actors.Set(key, a)
	}

	f := &fixture{w: w, friends: "friends", rivalries: "rivals"}
	f.alice = add("alice", "Alice", []string{"knight"}, map[string]string{"mood": "happy"})
	f.bob = add("bob", "Bob", nil, map[string]string{"mood": "sad"})
	f.carol = add("carol", "Carol", []string{"knight"}, nil)
	f.knight = add("kay", "Kay", []string{"knight", "mounted"}, nil)
	f.villager = add("vic", "Vic", []string{"villager"}, nil)

	friends := world.NewRelation(false, false)
	friends.Insert(f.bob, f.carol)
	w.Relations.Set(f.friends, friends)
	w.Relations.Set(f.rivalries, world.NewRelation(true, false))
	return f
}

func (f *fixture) actor(t *testing.T, id registry.ID) *world.Actor {
	t.Helper()
	a, ok := f.w.Actor(id)
	require.True(t, ok)
	return a
}

func TestActorSpecAppliesTo(t *testing.T) {
	f := newFixture(t)
	alice := f.actor(t, f.alice)

	cases := []struct {
		name  string
		build func(s *ActorSpec)
		want  bool
	}{
		{"empty spec", func(s *ActorSpec) {}, true},
		{"required attribute present", func(s *ActorSpec) { s.Require.Add("knight") }, true},
		{"required attribute missing", func(s *ActorSpec) { s.Require.Add("villager") }, false},
		{"forbidden attribute present", func(s *ActorSpec) { s.Forbid.Add("knight") }, false},
		{"forbidden attribute missing", func(s *ActorSpec) { s.Forbid.Add("villager") }, true},
		{"required property any value", func(s *ActorSpec) { s.RequireProps["mood"] = "" }, true},
		{"required property exact value", func(s *ActorSpec) { s.RequireProps["mood"] = "happy" }, true},
		{"required property wrong value", func(s *ActorSpec) { s.RequireProps["mood"] = "sad" }, false},
		{"required property absent", func(s *ActorSpec) { s.RequireProps["title"] = "" }, false},
		{"forbidden property key present", func(s *ActorSpec) { s.ForbidProps["mood"] = "" }, false},
		{"forbidden property key absent", func(s *ActorSpec) { s.ForbidProps["title"] = "" }, true},
		{"forbidden property value matches", func(s *ActorSpec) { s.ForbidProps["mood"] = "happy" }, false},
		{"forbidden property other value", func(s *ActorSpec) { s.ForbidProps["mood"] = "sad" }, true},
		{"combined clauses all hold", func(s *ActorSpec) {
			s.Require.Add("knight")
			s.Forbid.Add("villager")
			s.RequireProps["mood"] = "happy"
			s.ForbidProps["title"] = ""
		}, true},
		{"combined clauses one fails", func(s *ActorSpec) {
			s.Require.Add("knight")
			s.ForbidProps["mood"] = "happy"
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := NewActorSpec()
			tc.build(&spec)
			assert.Equal(t, tc.want, spec.AppliesTo(alice))
		})
	}
}

func TestConditionalPropertyRemoval(t *testing.T) {
	f := newFixture(t)
	spec := NewActorSpec()
	spec.RemoveProps["mood"] = "happy"
	b := NewBinding("cheer-up", &Event{}, nil)

	alice := f.actor(t, f.alice)
	spec.MutateDeletions(alice, f.w, b, nil)
	_, ok := alice.Prop("mood")
	assert.False(t, ok, "matching value is removed")

	bob := f.actor(t, f.bob)
	spec.MutateDeletions(bob, f.w, b, nil)
	mood, ok := bob.Prop("mood")
	assert.True(t, ok, "different value is kept")
	assert.Equal(t, "sad", mood)
}

func TestMutateAdditions(t *testing.T) {
	f := newFixture(t)
	spec := NewActorSpec()
	spec.Add.Add("married")
	spec.AddProps["spouse"] = "$b"
	spec.AddProps["mood"] = ""

	ev := New()
	b := NewBinding("wed", &ev, map[string]registry.ID{"a": f.alice, "b": f.bob})
	alice := f.actor(t, f.alice)
	spec.MutateAdditions(alice, f.w, b, nil)

	assert.True(t, alice.Attrs.Has("married"))
	assert.Equal(t, "Bob", alice.Props["spouse"])
	_, ok := alice.Prop("mood")
	assert.False(t, ok, "an empty addition erases the key")
}

func TestMutateAdditionsVisitsKeysInOrder(t *testing.T) {
	for range 50 {
		f := newFixture(t)
		spec := NewActorSpec()
		spec.AddProps["mood"] = "angry"
		spec.AddProps["prev"] = "$a.mood"

		ev := New()
		b := NewBinding("sulk", &ev, map[string]registry.ID{"a": f.alice})
		alice := f.actor(t, f.alice)
		spec.MutateAdditions(alice, f.w, b, nil)

		require.Equal(t, "angry", alice.Props["prev"], "mood is written before prev renders")
	}
}

func TestPropTemplatesOrder(t *testing.T) {
	spec := NewActorSpec()
	spec.AddProps["z"] = "$z"
	spec.AddProps["b"] = "$b"
	spec.AddProps["blank"] = ""
	spec.RemoveProps["a"] = "$a"

	assert.Equal(t, []string{"$b", "$z", "$a"}, spec.PropTemplates())
}

func TestTryBind(t *testing.T) {
	t.Run("mutually exclusive slots with one actor", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.Need("a").Require.Add("knight")
		ev.Need("b").Forbid.Add("knight")
		pool := []registry.ID{f.alice}

		b, ok := TryBind("duel", &ev, f.w, &pool, true, nil)
		assert.False(t, ok)
		assert.Nil(t, b)
	})

	t.Run("bound actors are distinct", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.Need("a").Require.Add("knight")
		ev.Need("b").Require.Add("knight")
		pool := []registry.ID{f.alice, f.bob, f.carol}

		b, ok := TryBind("joust", &ev, f.w, &pool, true, nil)
		require.True(t, ok)
		a, _ := b.Slot("a")
		c, _ := b.Slot("b")
		assert.Equal(t, f.alice, a)
		assert.Equal(t, f.carol, c)
		assert.Equal(t, []registry.ID{f.bob}, pool)
	})

	t.Run("world predicate", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.World.Require.Add("winter")
		pool := []registry.ID{f.alice}

		_, ok := TryBind("snowfall", &ev, f.w, &pool, true, nil)
		assert.False(t, ok)

		f.w.Global.Attrs.Add("winter")
		_, ok = TryBind("snowfall", &ev, f.w, &pool, true, nil)
		assert.True(t, ok)
		assert.Len(t, pool, 1, "slotless events take no actors")
	})

	t.Run("exhaustive search honours relations", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.Need("a")
		ev.Need("b")
		ev.Rel.Require.Add(Triple{Left: "a", Relation: f.friends, Right: "b"})
		pool := []registry.ID{f.alice, f.bob, f.carol}

		b, ok := TryBind("chat", &ev, f.w, &pool, true, nil)
		require.True(t, ok)
		a, _ := b.Slot("a")
		c, _ := b.Slot("b")
		assert.Equal(t, f.carol, a, "first slot varies fastest")
		assert.Equal(t, f.bob, c)
		assert.Equal(t, []registry.ID{f.alice}, pool)
	})

	t.Run("first slot varies fastest", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.Need("a")
		ev.Need("b")
		ev.Rel.Require.Add(Triple{Left: "a", Relation: f.friends, Right: "b"})
		pool := []registry.ID{f.carol, f.bob}

		b, ok := TryBind("chat", &ev, f.w, &pool, true, nil)
		require.True(t, ok)
		a, _ := b.Slot("a")
		c, _ := b.Slot("b")
		assert.Equal(t, f.bob, a, "(bob, carol) is reached before (carol, bob)")
		assert.Equal(t, f.carol, c)
		assert.Empty(t, pool)
	})

	t.Run("forbidden relation", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.Need("a")
		ev.Need("b")
		ev.Rel.Forbid.Add(Triple{Left: "a", Relation: f.friends, Right: "b"})
		pool := []registry.ID{f.bob, f.carol}

		_, ok := TryBind("meet", &ev, f.w, &pool, true, nil)
		assert.False(t, ok)
		assert.Len(t, pool, 2, "failed exhaustive search leaves the pool alone")
	})

	t.Run("unknown relation is not blocking", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.Need("a")
		ev.Rel.Require.Add(Triple{Left: "a", Relation: "enemies", Right: "a"})
		pool := []registry.ID{f.alice}
		d := diag.New(nil)

		_, ok := TryBind("scowl", &ev, f.w, &pool, true, d)
		assert.True(t, ok)
		assert.True(t, d.Has(diag.CodeUnknownRelation))
	})

	t.Run("greedy pick starves a later slot", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.Need("a")
		ev.Need("b").Require.Add("knight")
		pool := []registry.ID{f.knight, f.villager}

		_, ok := TryBind("squire", &ev, f.w, &pool, true, nil)
		assert.False(t, ok, "a takes the only knight even though b needs it")
		assert.Equal(t, []registry.ID{f.villager}, pool, "the greedy path drains the pool it was given")
	})

	t.Run("predicates disabled", func(t *testing.T) {
		f := newFixture(t)
		ev := New()
		ev.World.Require.Add("winter")
		ev.Need("a").Require.Add("dragon")
		ev.Rel.Require.Add(Triple{Left: "a", Relation: f.friends, Right: "a"})
		pool := []registry.ID{f.villager}

		b, ok := TryBind("roar", &ev, f.w, &pool, false, nil)
		require.True(t, ok)
		a, _ := b.Slot("a")
		assert.Equal(t, f.villager, a)
	})
}

func TestRelSpecSatisfiedRejectsReflexiveAdd(t *testing.T) {
	f := newFixture(t)
	spec := NewRelSpec()
	spec.Add.Add(Triple{Left: "a", Relation: f.rivalries, Right: "b"})

	same := NewBinding("brood", &Event{}, map[string]registry.ID{"a": f.alice, "b": f.alice})
	assert.False(t, spec.Satisfied(same, f.w, nil))

	other := NewBinding("brood", &Event{}, map[string]registry.ID{"a": f.alice, "b": f.bob})
	assert.True(t, spec.Satisfied(other, f.w, nil))
}

func TestCauseEffects(t *testing.T) {
	f := newFixture(t)
	ev := New()
	a := ev.Need("a")
	a.AddProps["heard"] = "$b.mood"
	a.Add.Add("informed")
	b := ev.Need("b")
	b.RemoveProps["mood"] = ""
	b.Remove.Add("knight")
	ev.World.Add.Add("gossip")
	ev.Rel.Add.Add(Triple{Left: "a", Relation: f.rivalries, Right: "b"})
	ev.Rel.Remove.Add(Triple{Left: "b", Relation: f.friends, Right: "a"})

	f.actor(t, f.carol).Props["mood"] = "smug"
	friends, _ := f.w.Relations.Get(f.friends)
	friends.Insert(f.alice, f.carol)

	binding := NewBinding("tell", &ev, map[string]registry.ID{"a": f.alice, "b": f.carol})
	binding.CauseEffects(f.w, nil)

	alice := f.actor(t, f.alice)
	carol := f.actor(t, f.carol)
	assert.Equal(t, "smug", alice.Props["heard"], "additions read values before deletions run")
	assert.True(t, alice.Attrs.Has("informed"))
	_, ok := carol.Prop("mood")
	assert.False(t, ok)
	assert.False(t, carol.Attrs.Has("knight"))
	assert.True(t, f.w.Global.Attrs.Has("gossip"))

	rivals, _ := f.w.Relations.Get(f.rivalries)
	assert.True(t, rivals.Contains(f.alice, f.carol))
	assert.False(t, rivals.Contains(f.carol, f.alice))
	assert.False(t, friends.Contains(f.alice, f.carol))
	assert.True(t, friends.Contains(f.bob, f.carol))
}

func TestBindingRender(t *testing.T) {
	f := newFixture(t)
	ev := New()
	ev.Need("a")
	ev.Need("b")
	ev.Message = template.Parse("$a greets $b. <S> [present=smiles/past=smiled].", nil)

	b := NewBinding("greet", &ev, map[string]registry.ID{"a": f.alice, "b": f.bob})
	assert.Equal(t, "Alice greets Bob. She smiles.", b.Render(f.w, nil))
	assert.Equal(t, "Alice greets Bob. She smiles.", b.Render(f.w, nil), "rendering twice starts from no last actor")
	assert.Equal(t, []registry.ID{f.alice, f.bob}, b.Actors())
}
