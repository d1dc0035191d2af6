// File path: internal/run/runner.go
package run

import (
	"context"
	"fmt"

	"github.com/cloudblazer/sfexporter/internal/common"
	"github.com/cloudblazer/sfexporter/internal/extract"
)

// execute drives one run end to end in a background goroutine. It never
// returns an error; outcomes land in the run state.
func (m *Manager) execute(ctx context.Context, id string, req Request) {
	logger := common.Logger()
	sink := func(message string) { m.appendLog(id, message) }
	poll := func() bool { return m.shouldContinue(id) }

	accessToken := req.AccessToken
	instanceURL := req.InstanceURL
	if req.Flow == FlowPassword {
		sink("Authenticating with Salesforce...")
		token, err := m.sf.PasswordToken(ctx, req.Credentials)
		if err != nil {
			if !m.shouldContinue(id) {
				m.finish(id, StatusTerminated, "Processing terminated by user.")
				return
			}
			logger.Error("run: authentication failed", "run_id", id, "error", err)
			sink(fmt.Sprintf("Authentication failed: %v", err))
			m.finish(id, StatusError, err.Error())
			return
		}
		accessToken = token.AccessToken
		instanceURL = token.InstanceURL
		sink("Authentication successful.")
	}

	m.setStatus(id, StatusRunning)

	sink("Fetching object list...")
	objects, err := m.sf.ListObjects(ctx, accessToken, instanceURL)
	if err != nil {
		if !m.shouldContinue(id) {
			m.finish(id, StatusTerminated, "Processing terminated by user.")
			return
		}
		logger.Error("run: object listing failed", "run_id", id, "error", err)
		sink(fmt.Sprintf("Failed to fetch object list: %v", err))
		m.finish(id, StatusError, err.Error())
		return
	}
	sink(fmt.Sprintf("Found %d queryable objects.", len(objects)))

	rows := extract.Extract(ctx, m.sf, accessToken, instanceURL, objects, req.Namespace, poll, sink)

	objectsProcessed := countObjects(rows)
	m.update(id, func(state *State) {
		state.ObjectsProcessed = objectsProcessed
		state.FieldsExtracted = len(rows)
	})

	terminated := !m.shouldContinue(id)

	metadataPath, err := m.files.SaveMetadataCSV(rows)
	if err != nil {
		logger.Error("run: save metadata failed", "run_id", id, "error", err)
		sink(fmt.Sprintf("Failed to save metadata CSV: %v", err))
		m.finish(id, StatusError, err.Error())
		return
	}
	m.update(id, func(state *State) { state.MetadataPath = metadataPath })
	sink("Metadata CSV saved.")

	exportPath, err := m.files.GenerateLucidCSV(metadataPath, req.AppLabel)
	if err != nil {
		logger.Error("run: export generation failed", "run_id", id, "error", err)
		sink(fmt.Sprintf("Failed to generate export CSV: %v", err))
		m.finish(id, StatusError, err.Error())
		return
	}
	m.update(id, func(state *State) { state.ExportPath = exportPath })
	sink("Export CSV generated.")

	if terminated {
		m.finish(id, StatusTerminated, "Processing terminated by user.")
		return
	}
	m.finish(id, StatusCompleted, fmt.Sprintf("Processed %d objects, extracted %d field records.", objectsProcessed, len(rows)))
}

// countObjects tallies distinct object names across the extracted rows. Rows
// for one object are contiguous, so a change of name is a new object.
func countObjects(rows []extract.MetadataRow) int {
	count := 0
	last := ""
	for _, row := range rows {
		if row.Object != last {
			last = row.Object
			count++
		}
	}
	return count
}
