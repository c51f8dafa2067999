package sanitize

import "testing"

func TestCommentPassesPlainTextThrough(t *testing.T) {
	if got := Comment("great video, thanks!"); got != "great video, thanks!" {
		t.Fatalf("plain text mangled: %q", got)
	}
}

func TestCommentStripsMarkup(t *testing.T) {
	got := Comment(`<b>bold</b> and <a href="x">a link</a>`)
	if got != "bold and a link" {
		t.Fatalf("markup not stripped: %q", got)
	}
}

func TestCommentDropsScriptAndStyle(t *testing.T) {
	got := Comment(`hi<script>alert("xss")</script> there<style>p{}</style>`)
	if got != "hi there" {
		t.Fatalf("script/style content leaked: %q", got)
	}
}

func TestCommentCollapsesWhitespace(t *testing.T) {
	if got := Comment("a \n\t b\x00c"); got != "a b c" {
		t.Fatalf("whitespace not normalized: %q", got)
	}
}
