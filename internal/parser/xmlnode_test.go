package parser

import "testing"

func TestParseXML_ToleratesLiteralAngleBracketsInText(t *testing.T) {
	fragment := `<directive name="x"><process><step name="check"><action>if a < b and c > d: pass</action></step></process></directive>`

	root := ParseXML(fragment)
	if root == nil {
		t.Fatal("ParseXML() = nil, want root node")
	}
	step := root.Child("process").Child("step")
	if step == nil {
		t.Fatal("step node not found")
	}
	action := step.Child("action")
	if action == nil {
		t.Fatal("action node not found")
	}
	if action.Text != "if a < b and c > d: pass" {
		t.Errorf("action.Text = %q, want %q", action.Text, "if a < b and c > d: pass")
	}
}

func TestParseXML_CDATA(t *testing.T) {
	fragment := `<directive><process><step><action><![CDATA[raw <tag> content]]></action></step></process></directive>`

	root := ParseXML(fragment)
	action := root.Child("process").Child("step").Child("action")
	if action == nil {
		t.Fatal("action node not found")
	}
	if action.Text != "raw <tag> content" {
		t.Errorf("action.Text = %q, want %q", action.Text, "raw <tag> content")
	}
}

func TestParseXML_SelfClosingAttrs(t *testing.T) {
	fragment := `<directive><permissions><permission tag="fs" scope="read-write"/></permissions></directive>`

	root := ParseXML(fragment)
	perm := root.Child("permissions").Child("permission")
	if perm == nil {
		t.Fatal("permission node not found")
	}
	if perm.Attrs["tag"] != "fs" || perm.Attrs["scope"] != "read-write" {
		t.Errorf("Attrs = %v, want tag=fs scope=read-write", perm.Attrs)
	}
}

func TestParseXML_NoRootDirectiveReturnsNil(t *testing.T) {
	if got := ParseXML(`<notdirective></notdirective>`); got != nil {
		t.Errorf("ParseXML() = %v, want nil for non-directive root", got)
	}
}

func TestNode_AllReturnsEveryMatch(t *testing.T) {
	fragment := `<directive><inputs><input name="a" type="string"/><input name="b" type="boolean"/></inputs></directive>`
	root := ParseXML(fragment)
	inputs := root.Child("inputs").All("input")
	if len(inputs) != 2 {
		t.Fatalf("len(All(input)) = %d, want 2", len(inputs))
	}
	if inputs[0].Attrs["name"] != "a" || inputs[1].Attrs["name"] != "b" {
		t.Errorf("inputs = %+v, want a then b", inputs)
	}
}
