package certificates

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// RenderFallbackHTML produces a plain HTML certificate carrying the same
// semantic content as the rendered artifacts. It is used when raster or PDF
// rendering fails, so event finalization still yields a reachable artifact
// and a working verification link. It cannot fail.
func RenderFallbackHTML(in RenderInput) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"pt-br\">\n<head><meta charset=\"utf-8\"><title>Certificado</title></head>\n<body>\n")
	b.WriteString("<h1>CERTIFICADO</h1>\n")
	fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(strings.ToUpper(in.ParticipantName)))
	b.WriteString("<p>é outorgado o presente certificado por ter participado do</p>\n")
	fmt.Fprintf(&b, "<h3>%s</h3>\n", html.EscapeString(in.EventTitle))
	fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(dateLine(in)))
	fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(organizerLine(in)))
	if in.Hours != nil {
		fmt.Fprintf(&b, "<p>Carga horária: %s horas</p>\n", strconv.FormatFloat(*in.Hours, 'f', -1, 64))
	}
	fmt.Fprintf(&b, "<p><a href=\"%s\">Verifique a autenticidade</a></p>\n", html.EscapeString(in.VerifyURL))
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}
