package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPIPrefixesIds(t *testing.T) {
	recorder := &Recorder{}
	api := NewScopedAPI("jira", NewScopedAPI("export", recorder))

	api.ReportWarning("missing-field", "FHIR-1")
	api.ReportCount("issues", 3)
	api.ReportBroken("decode")

	reports := recorder.Reports()
	require.Len(t, reports, 3)
	require.Equal(t, "jira:export:missing-field", reports[0].ID)
	require.Equal(t, []any{"FHIR-1"}, reports[0].Params)
	require.Equal(t, int64(3), reports[1].Count)
	require.Equal(t, "broken", reports[2].Kind)
	require.Equal(t, []string{"jira:export:missing-field"}, recorder.Warnings())
}
