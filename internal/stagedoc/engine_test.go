package stagedoc

import (
	"errors"
	"reflect"
	"testing"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

func ref(stage, field string) Ref { return NewRef(stage, field) }

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want Action
		err  bool
	}{
		{"", ActionSet, false},
		{"set", ActionSet, false},
		{"push", ActionPush, false},
		{"pull", ActionPull, false},
		{"update_in_array", ActionUpdateInArray, false},
		{"replace", "", true},
		{"PUSH", "", true},
	}
	for _, c := range cases {
		got, err := ParseAction(c.in)
		if c.err {
			if err == nil {
				t.Fatalf("ParseAction(%q): expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("ParseAction(%q) = %q, %v", c.in, got, err)
		}
	}
}

func TestRefValidate(t *testing.T) {
	if err := ref("empathize", "personas").Validate(); err != nil {
		t.Fatalf("valid ref rejected: %v", err)
	}
	if err := ref("empathize", "empathyMaps.p1.user.says").Validate(); err != nil {
		t.Fatalf("nested path under valid root rejected: %v", err)
	}
	if err := ref("brainstorm", "personas").Validate(); !errors.Is(err, ErrInvalidStage) {
		t.Fatalf("expected ErrInvalidStage, got %v", err)
	}
	if err := ref("empathize", "").Validate(); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for empty path, got %v", err)
	}
	if err := ref("empathize", "feedbackMatrix").Validate(); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("feedbackMatrix is a test-stage root, expected ErrInvalidField, got %v", err)
	}
}

func TestSetCreatesIntermediatePath(t *testing.T) {
	bag := map[string]any{}
	err := Apply(bag, ref("empathize", "empathyMaps.p9.user.says"), ActionSet, []any{"hello"})
	if err != nil {
		t.Fatalf("Apply set: %v", err)
	}
	emp := bag["empathize"].(map[string]any)
	maps := emp["empathyMaps"].(map[string]any)
	user := maps["p9"].(map[string]any)["user"].(map[string]any)
	if !reflect.DeepEqual(user["says"], []any{"hello"}) {
		t.Fatalf("set did not land under the exact path: %#v", bag)
	}
}

func TestSetReplacesScalarIntermediate(t *testing.T) {
	bag := map[string]any{
		"empathize": map[string]any{"checklist": "legacy-scalar"},
	}
	if err := Apply(bag, ref("empathize", "checklist.createdPersona"), ActionSet, true); err != nil {
		t.Fatalf("Apply set over scalar: %v", err)
	}
	cl := bag["empathize"].(map[string]any)["checklist"].(map[string]any)
	if cl["createdPersona"] != true {
		t.Fatalf("expected createdPersona=true, got %#v", cl)
	}
}

func TestPushThenPullIsInverse(t *testing.T) {
	bag := map[string]any{}
	persona := map[string]any{"id": "p1", "name": "Ana"}

	if err := Apply(bag, ref("empathize", "personas"), ActionPush, persona); err != nil {
		t.Fatalf("push: %v", err)
	}
	list := bag["empathize"].(map[string]any)["personas"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected 1 persona after push, got %d", len(list))
	}

	if err := Apply(bag, ref("empathize", "personas"), ActionPull, map[string]any{"id": "p1"}); err != nil {
		t.Fatalf("pull: %v", err)
	}
	list = bag["empathize"].(map[string]any)["personas"].([]any)
	if len(list) != 0 {
		t.Fatalf("expected empty list after pull, got %#v", list)
	}
}

func TestPushOntoScalarFails(t *testing.T) {
	bag := map[string]any{
		"empathize": map[string]any{"personas": "oops"},
	}
	err := Apply(bag, ref("empathize", "personas"), ActionPush, map[string]any{"id": "x"})
	if !errors.Is(err, ErrNotList) {
		t.Fatalf("expected ErrNotList, got %v", err)
	}
}

func TestPullIsIdempotent(t *testing.T) {
	bag := map[string]any{
		"empathize": map[string]any{
			"interviews": []any{
				map[string]any{"id": "i1", "personaId": "p1"},
				map[string]any{"id": "i2", "personaId": "p1"},
			},
		},
	}
	target := map[string]any{"id": "i1"}

	if err := Apply(bag, ref("empathize", "interviews"), ActionPull, target); err != nil {
		t.Fatalf("first pull: %v", err)
	}
	after1 := bag["empathize"].(map[string]any)["interviews"].([]any)

	// Second pull of the same id must be a silent no-op.
	if err := Apply(bag, ref("empathize", "interviews"), ActionPull, target); err != nil {
		t.Fatalf("second pull: %v", err)
	}
	after2 := bag["empathize"].(map[string]any)["interviews"].([]any)
	if !reflect.DeepEqual(after1, after2) || len(after2) != 1 {
		t.Fatalf("pull not idempotent: %#v vs %#v", after1, after2)
	}
	if id, _ := idOf(after2[0]); id != "i2" {
		t.Fatalf("wrong survivor: %#v", after2)
	}
}

func TestPullAcceptsBareStringID(t *testing.T) {
	bag := map[string]any{
		"empathize": map[string]any{"personas": []any{map[string]any{"id": "p1"}}},
	}
	if err := Apply(bag, ref("empathize", "personas"), ActionPull, "p1"); err != nil {
		t.Fatalf("pull with bare id: %v", err)
	}
	if got := bag["empathize"].(map[string]any)["personas"].([]any); len(got) != 0 {
		t.Fatalf("expected empty list, got %#v", got)
	}
}

func TestPullMissingListIsNoop(t *testing.T) {
	bag := map[string]any{}
	if err := Apply(bag, ref("empathize", "personas"), ActionPull, "ghost"); err != nil {
		t.Fatalf("pull on absent list errored: %v", err)
	}
}

func TestUpdateInArrayRenamesWithoutDuplicating(t *testing.T) {
	bag := map[string]any{}
	if err := Apply(bag, ref("empathize", "personas"), ActionPush, map[string]any{"id": "p1", "name": "Ana"}); err != nil {
		t.Fatalf("push: %v", err)
	}

	spec := map[string]any{"id": "p1", "fieldToUpdate": "name", "newValue": "Ana R."}
	if err := Apply(bag, ref("empathize", "personas"), ActionUpdateInArray, spec); err != nil {
		t.Fatalf("update_in_array: %v", err)
	}

	list := bag["empathize"].(map[string]any)["personas"].([]any)
	if len(list) != 1 {
		t.Fatalf("update duplicated the element: %#v", list)
	}
	if got := list[0].(map[string]any)["name"]; got != "Ana R." {
		t.Fatalf("expected renamed persona, got %#v", got)
	}
}

func TestUpdateInArrayMissingTargetIsNoop(t *testing.T) {
	bag := map[string]any{
		"empathize": map[string]any{"personas": []any{map[string]any{"id": "p1", "name": "Ana"}}},
	}
	spec := map[string]any{"id": "ghost", "fieldToUpdate": "name", "newValue": "X"}

	for i := 0; i < 2; i++ {
		if err := Apply(bag, ref("empathize", "personas"), ActionUpdateInArray, spec); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}
	list := bag["empathize"].(map[string]any)["personas"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["name"] != "Ana" {
		t.Fatalf("no-op update altered the list: %#v", list)
	}
}

func TestUpdateInArrayValidation(t *testing.T) {
	bag := map[string]any{}
	cases := []any{
		"not-an-object",
		map[string]any{"fieldToUpdate": "name", "newValue": "x"},       // no id
		map[string]any{"id": "p1", "newValue": "x"},                    // no fieldToUpdate
		map[string]any{"id": "p1", "fieldToUpdate": "name"},            // no newValue
		map[string]any{"id": "", "fieldToUpdate": "name", "newValue": 1},
	}
	for _, v := range cases {
		if err := Apply(bag, ref("empathize", "personas"), ActionUpdateInArray, v); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("value %#v: expected ErrInvalidValue, got %v", v, err)
		}
	}
}

func TestApplyTouchesOnlyAddressedStage(t *testing.T) {
	bag := map[string]any{
		"define": map[string]any{"checklist": map[string]any{"wrotePov": true}},
	}
	if err := Apply(bag, ref("empathize", "checklist.createdPersona"), ActionSet, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	def := bag["define"].(map[string]any)["checklist"].(map[string]any)
	if def["wrotePov"] != true {
		t.Fatalf("sibling stage altered: %#v", bag)
	}
}

func TestStageTreeCreatesOnDemand(t *testing.T) {
	bag := map[string]any{}
	tree := StageTree(bag, domain.PhaseTest.String())
	tree["feedbackMatrix"] = []any{}
	if _, ok := bag["test"].(map[string]any)["feedbackMatrix"]; !ok {
		t.Fatalf("StageTree did not return the live sub-tree")
	}
}
