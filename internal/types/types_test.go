package types_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/types"
)

func TestJoinOfIncompatibleScalarsIsUnion(t *testing.T) {
	got := types.Join(types.Number(), types.String())
	if got.Tag != types.TagUnion || len(got.Members) != 2 {
		t.Fatalf("expected a two-member union, got %+v", got)
	}
}

func TestJoinWithBottomIsIdentity(t *testing.T) {
	got := types.Join(types.Bottom(), types.Number())
	if !types.Equal(got, types.Number()) {
		t.Fatalf("expected join with bottom to be identity, got %+v", got)
	}
}

func TestSpecializeUnknownTakesToward(t *testing.T) {
	got := types.Specialize(types.Unknown(), types.String())
	if !types.Equal(got, types.String()) {
		t.Fatalf("expected specialize(unknown, string) == string, got %+v", got)
	}
}

func TestSubtypeOfNominalChain(t *testing.T) {
	base := types.Nominal("Base", nil)
	derived := types.Nominal("Derived", []string{"Base"})
	if !types.SubtypeOf(derived, base) {
		t.Fatal("expected Derived to be a subtype of Base via its super chain")
	}
	if types.SubtypeOf(base, derived) {
		t.Fatal("did not expect Base to be a subtype of Derived")
	}
}

func TestRemoveTypeStripsNullFromUnion(t *testing.T) {
	u := types.Union(types.Null(), types.Undefined(), types.String())
	got := types.RemoveType(u, types.Union(types.Null(), types.Undefined()))
	if !types.Equal(got, types.String()) {
		t.Fatalf("expected only string to remain, got %+v", got)
	}
}

func TestGetPropOnClosedObjectMissingKey(t *testing.T) {
	obj := types.Object(map[string]types.Type{"x": types.Number()}, false)
	_, ok := types.GetProp(obj, "y")
	if ok {
		t.Fatal("did not expect a closed object to report a missing property as present")
	}
	if !types.MayHaveProp(types.Object(map[string]types.Type{}, true), "anything") {
		t.Fatal("expected an open object to may-have any property")
	}
}

func TestUnifyWithAmbiguity(t *testing.T) {
	formal := types.Function([]types.Type{types.TypeVar("T"), types.TypeVar("T")}, 2, false, types.TypeVar("T"))
	multimap := make(map[string][]types.Type)
	typeVars := map[string]bool{"T": true}
	types.UnifyWith(formal, types.Function([]types.Type{types.Number(), types.String()}, 2, false, types.Unknown()), typeVars, multimap)
	resolved, ambiguous := types.ResolveAmbiguity(multimap["T"], false)
	if !ambiguous {
		t.Fatal("expected id(1, \"a\")-style call to be ambiguous")
	}
	if resolved.Tag != types.TagUnknown {
		t.Fatalf("expected strict-mode ambiguity to resolve to unknown, got %+v", resolved)
	}
}
