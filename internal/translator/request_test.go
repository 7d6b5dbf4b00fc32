package translator

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func TestBuildUpstreamRequestShape(t *testing.T) {
	in := []byte(`{
		"model": "gpt-4",
		"messages": [{"role": "user", "content": "hello"}],
		"temperature": 0.7,
		"max_tokens": 100,
		"store": true,
		"user": "abc",
		"metadata": {"x": 1}
	}`)

	out := BuildUpstreamRequest(in, "gpt-4o", 6000)
	root := gjson.ParseBytes(out)

	if got := root.Get("model").String(); got != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", got)
	}
	if got := root.Get("messages.0.content").String(); got != "hello" {
		t.Errorf("messages.0.content = %q, want hello", got)
	}
	if got := root.Get("temperature").Float(); got != 0.7 {
		t.Errorf("temperature = %v, want 0.7", got)
	}
	if got := root.Get("max_tokens").Int(); got != 100 {
		t.Errorf("max_tokens = %v, want 100", got)
	}
	if root.Get("store").Exists() {
		t.Error("store must be removed from the upstream request")
	}
	if root.Get("user").Exists() || root.Get("metadata").Exists() {
		t.Error("non-allow-listed fields must not be forwarded")
	}
}

func TestBuildUpstreamRequestEmptyBody(t *testing.T) {
	out := BuildUpstreamRequest(nil, "gpt-4o", 6000)
	root := gjson.ParseBytes(out)

	if !root.Get("messages").IsArray() {
		t.Error("messages must be present as an array")
	}
	if got := root.Get("model").String(); got != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", got)
	}
}

func TestBuildUpstreamRequestUnderBudgetUntouched(t *testing.T) {
	in := []byte(`{"model":"gpt-4","messages":[
		{"role":"system","content":"be brief"},
		{"role":"user","content":"a"},{"role":"assistant","content":"b"},
		{"role":"user","content":"c"},{"role":"assistant","content":"d"},
		{"role":"user","content":"e"},{"role":"assistant","content":"f"},
		{"role":"user","content":"g"}]}`)

	out := BuildUpstreamRequest(in, "gpt-4o", 6000)

	// Eight messages exceed the window size but not the budget; the window
	// only applies once the payload is over budget.
	if got := len(gjson.GetBytes(out, "messages").Array()); got != 8 {
		t.Errorf("message count = %d, want 8 (no truncation under budget)", got)
	}
}

func TestTruncateSystemPrompt(t *testing.T) {
	big := strings.Repeat("x", 20000)
	in := []byte(fmt.Sprintf(`{"messages":[{"role":"system","content":"%s"},{"role":"user","content":"hi"}]}`, big))

	out := BuildUpstreamRequest(in, "gpt-4o", 100)
	content := gjson.GetBytes(out, "messages.0.content").String()

	if !strings.HasSuffix(content, truncationMarker) {
		t.Error("truncated system prompt must carry the truncation marker")
	}
	if got := len(content); got != systemPromptCharLimit+len(truncationMarker) {
		t.Errorf("truncated content length = %d, want %d", got, systemPromptCharLimit+len(truncationMarker))
	}
}

func TestTruncateSystemPromptMultibyteBoundary(t *testing.T) {
	// The char limit lands inside a two-byte rune; the cut must back off to
	// the rune boundary instead of emitting invalid UTF-8.
	content := strings.Repeat("x", systemPromptCharLimit-1) + strings.Repeat("é", 5000)
	in, err := sjson.Set(`{"messages":[{"role":"system","content":""},{"role":"user","content":"hi"}]}`,
		"messages.0.content", content)
	if err != nil {
		t.Fatal(err)
	}

	out := BuildUpstreamRequest([]byte(in), "gpt-4o", 100)
	got := gjson.GetBytes(out, "messages.0.content").String()

	if !utf8.ValidString(got) {
		t.Fatal("truncated system prompt is not valid UTF-8")
	}
	if !strings.HasSuffix(got, truncationMarker) {
		t.Fatal("truncated system prompt must carry the truncation marker")
	}
	body := strings.TrimSuffix(got, truncationMarker)
	if len(body) != systemPromptCharLimit-1 {
		t.Errorf("cut length = %d, want %d (backed off to the rune boundary)", len(body), systemPromptCharLimit-1)
	}
}

func TestCutAtRuneBoundary(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"abcdef", 4, "abcd"},
		{"abcdef", 10, "abcdef"},
		{"aéé", 2, "a"},
		{"aéé", 3, "aé"},
		{"ééé", 0, ""},
	}
	for _, tc := range cases {
		if got := cutAtRuneBoundary(tc.in, tc.limit); got != tc.want {
			t.Errorf("cutAtRuneBoundary(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestTruncateMessageWindow(t *testing.T) {
	var msgs []string
	msgs = append(msgs, `{"role":"system","content":"sys"}`)
	for i := 0; i < 8; i++ {
		msgs = append(msgs, fmt.Sprintf(`{"role":"user","content":"turn %d"}`, i))
	}
	in := []byte(`{"messages":[` + strings.Join(msgs, ",") + `]}`)

	out := BuildUpstreamRequest(in, "gpt-4o", 1)
	kept := gjson.GetBytes(out, "messages").Array()

	if len(kept) != 1+keepRecentMessages {
		t.Fatalf("message count = %d, want %d", len(kept), 1+keepRecentMessages)
	}
	if kept[0].Get("role").String() != "system" {
		t.Errorf("first surviving message role = %q, want system", kept[0].Get("role").String())
	}
	if got := kept[len(kept)-1].Get("content").String(); got != "turn 7" {
		t.Errorf("last surviving message = %q, want turn 7", got)
	}
	if got := kept[1].Get("content").String(); got != "turn 3" {
		t.Errorf("window start = %q, want turn 3", got)
	}
}

func TestTruncateToolList(t *testing.T) {
	var tools []string
	for i := 0; i < 12; i++ {
		tools = append(tools, fmt.Sprintf(`{"type":"function","function":{"name":"tool%d"}}`, i))
	}
	in := []byte(`{"messages":[{"role":"user","content":"hi"}],"tools":[` + strings.Join(tools, ",") + `]}`)

	out := BuildUpstreamRequest(in, "gpt-4o", 1)
	kept := gjson.GetBytes(out, "tools").Array()

	if len(kept) != maxTools {
		t.Fatalf("tool count = %d, want %d", len(kept), maxTools)
	}
	if got := kept[0].Get("function.name").String(); got != "tool0" {
		t.Errorf("first kept tool = %q, want tool0", got)
	}
	if got := kept[maxTools-1].Get("function.name").String(); got != "tool9" {
		t.Errorf("last kept tool = %q, want tool9", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	str := gjson.Parse(`"abcdefgh"`)
	if got := estimateTokens(str); got != 2 {
		t.Errorf("estimateTokens(string) = %d, want 2", got)
	}

	parts := gjson.Parse(`[{"type":"text","text":"abcd"}]`)
	if got := estimateTokens(parts); got != len(parts.Raw)/4 {
		t.Errorf("estimateTokens(array) = %d, want raw length / 4", got)
	}
}
