package certificates

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() RenderInput {
	start := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	hours := 20.0
	return RenderInput{
		ParticipantName: "Maria Clara Souza",
		EventTitle:      "Semana Acadêmica de Computação",
		StartDate:       &start,
		EndDate:         &end,
		Hours:           &hours,
		Organizer:       "Departamento de Computação",
		Location:        "Campus Central",
		Institution:     "Universidade Exemplo",
		VerifyURL:       "https://eventoensina.com/certificates/verify/abc-123/",
	}
}

func TestRender_ProducesBothArtifacts(t *testing.T) {
	r := NewRenderer(t.TempDir())

	res, err := r.Render(sampleInput())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, strings.HasPrefix(string(res.PNG), "\x89PNG"), "png signature")
	assert.True(t, strings.HasPrefix(string(res.PDF), "%PDF"), "pdf header")
}

// Same input, same pixels. Verified on the PNG only; the PDF wrapper stamps a
// creation date.
func TestRender_PNGDeterministic(t *testing.T) {
	r := NewRenderer(t.TempDir())
	in := sampleInput()

	first, err := r.Render(in)
	require.NoError(t, err)
	second, err := r.Render(in)
	require.NoError(t, err)
	assert.Equal(t, first.PNG, second.PNG)
}

func TestRender_RejectsOversizedQRPayload(t *testing.T) {
	r := NewRenderer(t.TempDir())
	in := sampleInput()
	in.VerifyURL = strings.Repeat("a", 5000)

	_, err := r.Render(in)
	assert.Error(t, err)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{""}, wrapText("", 50))
	assert.Equal(t, []string{"curto"}, wrapText("curto", 50))
	assert.Equal(t, []string{"um dois", "tres"}, wrapText("um dois tres", 8))

	// A word longer than the width gets its own line.
	lines := wrapText("x palavragigantescaquenaocabe y", 10)
	assert.Equal(t, []string{"x", "palavragigantescaquenaocabe", "y"}, lines)

	for _, line := range wrapText("evento com um titulo bastante longo que precisa quebrar em varias linhas", 20) {
		words := strings.Fields(line)
		if len(words) > 1 {
			assert.LessOrEqual(t, len(line), 20)
		}
	}
}

func TestWatermarkText_TruncatesOnRunes(t *testing.T) {
	assert.Equal(t, "Curso Breve", watermarkText("Curso Breve"))

	// The 40th position lands inside a run of accented characters; the cut
	// must stay on a rune boundary and the result must remain valid UTF-8.
	long := strings.Repeat("Açã", 20)
	got := watermarkText(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 40, utf8.RuneCountInString(got))
	assert.Equal(t, string([]rune(long)[:40]), got)
}

func TestDateLine(t *testing.T) {
	assert.Equal(t, "data não informada", dateLine(RenderInput{}))

	start := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	hours := 3.5

	assert.Equal(t, "02/05/2026", dateLine(RenderInput{StartDate: &start}))
	assert.Equal(t, "02/05/2026 a 10/05/2026", dateLine(RenderInput{StartDate: &start, EndDate: &end}))
	assert.Equal(t, "02/05/2026 a 10/05/2026 (3.5 horas)", dateLine(RenderInput{StartDate: &start, EndDate: &end, Hours: &hours}))
}

func TestOrganizerLine(t *testing.T) {
	assert.Equal(t, "Organizado por: Depto • Local: Sala 1", organizerLine(RenderInput{Organizer: "Depto", Location: "Sala 1"}))
	assert.Equal(t, "Organizado por: Organizador não informado • Local: ", organizerLine(RenderInput{}))
}

func TestVerifyURL(t *testing.T) {
	assert.Equal(t, "/certificates/verify/abc/", VerifyURL("", "abc"))
	assert.Equal(t, "https://ee.com/certificates/verify/abc/", VerifyURL("https://ee.com", "abc"))
}

func TestRenderFallbackHTML(t *testing.T) {
	out := string(RenderFallbackHTML(sampleInput()))
	assert.Contains(t, out, "MARIA CLARA SOUZA")
	assert.Contains(t, out, "Semana Acadêmica de Computação")
	assert.Contains(t, out, "https://eventoensina.com/certificates/verify/abc-123/")

	// Markup in input never reaches the document unescaped.
	in := sampleInput()
	in.ParticipantName = `<script>alert(1)</script>`
	assert.NotContains(t, string(RenderFallbackHTML(in)), "<script>")
}
