package screening

import (
	"bytes"
	"strings"
	"testing"
)

func renderPage(t *testing.T, v PageView) string {
	t.Helper()
	if v.Path == "" {
		v.Path = PagePath
		v.RefreshPath = RefreshPath
		v.ExportPath = ExportPath
		v.Placeholder = SearchPlaceholder
	}
	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestRender_ErrorAlertIsVerbatim(t *testing.T) {
	html := renderPage(t, PageView{
		State: State{Error: "Network down"},
		Table: BuildTable(nil, TableOptions{}, utcFormatter()),
	})
	if !strings.Contains(html, `<div class="alert" role="alert">Network down</div>`) {
		t.Errorf("expected verbatim error alert, got:\n%s", html)
	}
	if !strings.Contains(html, "Nenhuma triagem encontrada.") {
		t.Error("expected empty table message")
	}
}

func TestRender_NoAlertWithoutError(t *testing.T) {
	html := renderPage(t, PageView{Table: BuildTable(sampleScreenings(), TableOptions{}, utcFormatter())})
	if strings.Contains(html, `role="alert"`) {
		t.Error("expected no alert")
	}
}

func TestRender_LoadingIndicator(t *testing.T) {
	html := renderPage(t, PageView{State: State{Loading: true}})
	if !strings.Contains(html, "Carregando") || !strings.Contains(html, `http-equiv="refresh"`) {
		t.Error("expected loading indicator and auto refresh")
	}
	if !strings.Contains(html, "disabled") {
		t.Error("expected refresh button to be disabled while loading")
	}
}

func TestRender_RiskBadges(t *testing.T) {
	s := newTestScreening("b1", "Ana", "1", "", "", "", 0)
	s.RiskPHQ9 = RiskSevere
	s.RiskGAD7 = RiskMinimal
	html := renderPage(t, PageView{Table: BuildTable([]*Screening{s}, TableOptions{}, utcFormatter())})

	if !strings.Contains(html, `class="badge badge-error"`) || !strings.Contains(html, "PHQ-9: Grave") {
		t.Errorf("expected error colored Grave badge, got:\n%s", html)
	}
	if !strings.Contains(html, `class="badge badge-success"`) || !strings.Contains(html, "GAD-7: Mínimo") {
		t.Error("expected success colored Mínimo badge")
	}
}

func TestRender_RiskAndReportHeadersAreNotLinks(t *testing.T) {
	html := renderPage(t, PageView{Table: BuildTable(sampleScreenings(), TableOptions{}, utcFormatter())})
	if !strings.Contains(html, "<th>Risco</th>") || !strings.Contains(html, "<th>Relatório</th>") {
		t.Error("expected plain risk and report headers")
	}
	if !strings.Contains(html, "Nome</a></th>") {
		t.Error("expected sortable name header")
	}
	if !strings.Contains(html, "Data ▼</a>") {
		t.Error("expected default sort mark on the date header")
	}
}

func TestRender_ReportDialogPreservesWhitespace(t *testing.T) {
	s := newTestScreening("d1", "Ana Souza", "2021001", "", "", "", 0)
	s.Report = "Line1\nLine2\n\n  indented"
	d := NewDetail(s, utcFormatter())

	html := renderPage(t, PageView{
		Table:  BuildTable([]*Screening{s}, TableOptions{}, utcFormatter()),
		Detail: &d,
	})
	if !strings.Contains(html, "<pre class=\"report\">Line1\nLine2\n\n  indented</pre>") {
		t.Errorf("expected report with line breaks intact, got:\n%s", html)
	}
	if !strings.Contains(html, "<dialog open") {
		t.Error("expected open dialog")
	}
	if strings.Count(html, "<dialog") != 1 {
		t.Error("expected exactly one dialog")
	}
	if !strings.Contains(html, `href="/admin/screenings?size=10">Fechar</a>`) {
		t.Errorf("expected close link without view parameter, got:\n%s", html)
	}
}

func TestRender_NoDialogWithoutSelection(t *testing.T) {
	html := renderPage(t, PageView{Table: BuildTable(sampleScreenings(), TableOptions{}, utcFormatter())})
	if strings.Contains(html, "<dialog") {
		t.Error("expected no dialog")
	}
	if !strings.Contains(html, `href="/admin/screenings?size=10&amp;view=s1"`) {
		t.Errorf("expected view link for s1, got:\n%s", html)
	}
}

func TestRender_ReportIsEscaped(t *testing.T) {
	s := newTestScreening("x1", "Ana", "1", "", "", "", 0)
	s.Report = "<script>alert(1)</script>"
	d := NewDetail(s, utcFormatter())
	html := renderPage(t, PageView{Detail: &d})
	if strings.Contains(html, "<script>alert(1)") {
		t.Error("expected report to be HTML escaped")
	}
}

func TestPageView_URLs(t *testing.T) {
	v := PageView{
		Path:       PagePath,
		ExportPath: ExportPath,
		Table:      BuildTable(manyScreenings(30), TableOptions{Query: "aluno", Page: 2, Size: 10}, utcFormatter()),
	}

	if got := v.PageURL(3); got != "/admin/screenings?page=3&q=aluno&size=10" {
		t.Errorf("unexpected page URL %q", got)
	}
	if got := v.SortURL(ColName); got != "/admin/screenings?dir=asc&q=aluno&size=10&sort=name" {
		t.Errorf("unexpected sort URL %q", got)
	}
	if got := v.SortURL(ColCreatedAt); got != "/admin/screenings?dir=asc&q=aluno&size=10&sort=createdAt" {
		t.Errorf("expected toggle to ascending, got %q", got)
	}
	if got := v.ExportURL(); got != "/admin/screenings/export.xlsx?q=aluno" {
		t.Errorf("unexpected export URL %q", got)
	}
	if got := v.URL("q", ""); got != "/admin/screenings?page=2&size=10" {
		t.Errorf("expected q to be removed, got %q", got)
	}
	if v.SortMark(ColCreatedAt) != " ▼" || v.SortMark(ColName) != "" {
		t.Error("unexpected sort marks")
	}
}
