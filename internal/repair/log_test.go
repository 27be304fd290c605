package repair

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_OrderAndLevels(t *testing.T) {
	log := NewLog(nil)
	log.Infof("diagnosing")
	log.Runf("flushing %s...", "DNS")
	log.Successf("flushed")
	log.Warningf("slow response")
	log.Errorf("renewal failed")

	assert.Equal(t, []Entry{
		{Level: "info", Message: "diagnosing"},
		{Level: "run", Message: "flushing DNS..."},
		{Level: "success", Message: "flushed"},
		{Level: "warning", Message: "slow response"},
		{Level: "error", Message: "renewal failed"},
	}, log.Entries())
}

// An empty log marshals as [] rather than null so the report shape stays
// stable.
func TestLog_EmptyEntriesMarshal(t *testing.T) {
	log := NewLog(nil)
	assert.NotNil(t, log.Entries())

	raw, err := json.Marshal(Report{Success: true, Action: "diagnose", Logs: log.Entries()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"action":"diagnose","logs":[]}`, string(raw))
}

func TestReport_DiagnosisOmittedWhenAbsent(t *testing.T) {
	raw, err := json.Marshal(Report{Success: false, Action: "full", Logs: []Entry{}})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "diagnosis")
}
