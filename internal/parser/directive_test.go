package parser

import "testing"

const sampleDirective = `<directive name="plan_refactor" version="1.2.0">
  <metadata category="planning">
    <description>Plans a multi-file refactor.</description>
    <permissions>
      <permission tag="fs" scope="read-write"/>
      <permission tag="shell" allow="true"/>
    </permissions>
    <model tier="reasoning" fallback="balanced" parallel="true"/>
    <inputs>
      <input name="target_dir" type="string" required="true"/>
      <input name="dry_run" type="boolean" required="false"/>
    </inputs>
  </metadata>
  <process>
    <step name="scan">
      <description>Scan the target directory.</description>
      <action>list_files</action>
      <verification>
        <check>files_found &gt; 0</check>
      </verification>
    </step>
  </process>
  <mcps>
    <mcp name="filesystem" required="true" tools="read,write"/>
  </mcps>
</directive>`

func TestExtractDirectiveXML(t *testing.T) {
	wrapped := "```xml\n" + sampleDirective + "\n```"
	xml, err := ExtractDirectiveXML(wrapped)
	if err != nil {
		t.Fatalf("ExtractDirectiveXML() error: %v", err)
	}
	if xml != sampleDirective {
		t.Errorf("ExtractDirectiveXML() = %q, want %q", xml, sampleDirective)
	}
}

func TestExtractDirectiveXML_MissingTags(t *testing.T) {
	if _, err := ExtractDirectiveXML("no xml here"); err == nil {
		t.Error("expected error for content with no <directive> tag")
	}
	if _, err := ExtractDirectiveXML("<directive>unterminated"); err == nil {
		t.Error("expected error for content with no </directive> tag")
	}
}

func TestParseDirective(t *testing.T) {
	meta, xml, err := ParseDirective(sampleDirective)
	if err != nil {
		t.Fatalf("ParseDirective() error: %v", err)
	}
	if xml != sampleDirective {
		t.Errorf("returned xml mismatch")
	}
	if meta.Name != "plan_refactor" {
		t.Errorf("Name = %q, want %q", meta.Name, "plan_refactor")
	}
	if meta.Version != "1.2.0" {
		t.Errorf("Version = %q, want %q", meta.Version, "1.2.0")
	}
	if meta.Category != "planning" {
		t.Errorf("Category = %q, want %q", meta.Category, "planning")
	}
	if meta.Description != "Plans a multi-file refactor." {
		t.Errorf("Description = %q, want %q", meta.Description, "Plans a multi-file refactor.")
	}
	if len(meta.Permissions) != 2 {
		t.Fatalf("len(Permissions) = %d, want 2", len(meta.Permissions))
	}
	if meta.Model.Tier != "reasoning" || meta.Model.Fallback != "balanced" || !meta.Model.Parallel {
		t.Errorf("Model = %+v, want tier=reasoning fallback=balanced parallel=true", meta.Model)
	}
	if len(meta.Inputs) != 2 {
		t.Fatalf("len(Inputs) = %d, want 2", len(meta.Inputs))
	}
	if meta.Inputs[0].Name != "target_dir" || !meta.Inputs[0].Required {
		t.Errorf("Inputs[0] = %+v, want target_dir required", meta.Inputs[0])
	}
	if meta.Inputs[1].Required {
		t.Errorf("Inputs[1].Required = true, want false")
	}
	if len(meta.Process) != 1 || meta.Process[0].Name != "scan" {
		t.Fatalf("Process = %+v, want one step named scan", meta.Process)
	}
	if meta.Process[0].Action != "list_files" {
		t.Errorf("Process[0].Action = %q, want %q", meta.Process[0].Action, "list_files")
	}
	if len(meta.Process[0].Verifications) != 1 {
		t.Errorf("len(Verifications) = %d, want 1", len(meta.Process[0].Verifications))
	}
	if len(meta.MCPs) != 1 || meta.MCPs[0].Name != "filesystem" || !meta.MCPs[0].Required {
		t.Fatalf("MCPs = %+v, want one required filesystem entry", meta.MCPs)
	}
}
