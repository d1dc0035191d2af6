// File path: internal/salesforce/apps.go
package salesforce

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudblazer/sfexporter/internal/common"
)

// AllObjectsID identifies the synthetic menu entry representing no namespace
// filter.
const AllObjectsID = "all"

func allObjectsEntry() Application {
	return Application{
		ID:          AllObjectsID,
		Name:        "All Objects",
		Label:       "All Objects (No Filter)",
		Description: "Extract metadata for all objects in the org",
	}
}

type customApplicationRecord struct {
	ID              string `json:"Id"`
	Name            string `json:"Name"`
	Label           string `json:"Label"`
	NamespacePrefix string `json:"NamespacePrefix"`
}

type installedPackageRecord struct {
	ID                string `json:"Id"`
	SubscriberPackage struct {
		Name            string `json:"Name"`
		NamespacePrefix string `json:"NamespacePrefix"`
	} `json:"SubscriberPackage"`
}

// ListApplications discovers installed apps and packages to build the
// namespace selection menu. Every probe is best effort: failures are logged
// and the accumulated entries are returned, so the call itself never fails
// and always includes at least the synthetic "all" entry.
func (c *Client) ListApplications(ctx context.Context, accessToken, instanceURL string) []Application {
	logger := common.Logger()
	apps := []Application{allObjectsEntry()}

	uiApps, err := c.uiAPIApps(ctx, accessToken, instanceURL)
	if err != nil {
		logAPIFailure("list apps", err)
		fallback, fbErr := c.visibleCustomApplications(ctx, accessToken, instanceURL)
		if fbErr != nil {
			logAPIFailure("list apps fallback", fbErr)
		} else {
			apps = mergeByLabel(apps, fallback)
		}
	} else {
		for _, entry := range uiApps {
			namespace := c.namespaceForApp(ctx, accessToken, instanceURL, entry.ID, entry.Label)
			apps = mergeByLabel(apps, []Application{describeAppEntry(entry.ID, entry.Name, entry.Label, namespace)})
		}
	}

	packages, err := c.installedPackages(ctx, accessToken, instanceURL)
	if err != nil {
		logAPIFailure("list installed packages", err)
	} else {
		apps = mergeByNamespace(apps, packages)
	}

	sort.SliceStable(apps[1:], func(i, j int) bool {
		return apps[i+1].Label < apps[j+1].Label
	})
	logger.Info("salesforce: built application menu", "entries", len(apps))
	return apps
}

type uiAppEntry struct {
	ID    string
	Name  string
	Label string
}

// uiAPIApps queries the App Launcher listing.
func (c *Client) uiAPIApps(ctx context.Context, accessToken, instanceURL string) ([]uiAppEntry, error) {
	var envelope struct {
		Apps []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Label string `json:"label"`
		} `json:"apps"`
	}
	appsURL := c.restURL(instanceURL, "/ui-api/apps") + "?formFactor=Large"
	if err := c.getJSON(ctx, c.listClient, "list apps", appsURL, accessToken, &envelope); err != nil {
		return nil, err
	}
	entries := make([]uiAppEntry, 0, len(envelope.Apps))
	for _, app := range envelope.Apps {
		label := app.Label
		if label == "" {
			label = app.Name
		}
		if label == "" {
			label = "Unknown App"
		}
		name := app.Name
		if name == "" {
			name = label
		}
		id := app.ID
		if id == "" {
			id = name
		}
		entries = append(entries, uiAppEntry{ID: id, Name: name, Label: label})
	}
	common.Logger().Info("salesforce: retrieved apps from UI API", "count", len(entries))
	return entries, nil
}

// namespaceForApp resolves an app's namespace prefix via a secondary lookup.
// Failure is tolerated per app; the entry simply carries no namespace.
func (c *Client) namespaceForApp(ctx context.Context, accessToken, instanceURL, appID, label string) string {
	if appID == "" {
		return ""
	}
	safeID := strings.ReplaceAll(appID, "'", "\\'")
	query := fmt.Sprintf("SELECT Id, Name, Label, NamespacePrefix FROM CustomApplication WHERE Id = '%s'", safeID)
	var records []customApplicationRecord
	if err := c.soqlQuery(ctx, c.queryClient, "app namespace lookup", accessToken, instanceURL, query, &records); err != nil {
		common.Logger().Debug("salesforce: namespace lookup failed", "app", label, "error", err)
		return ""
	}
	if len(records) == 0 {
		return ""
	}
	return records[0].NamespacePrefix
}

// visibleCustomApplications is the fallback catalog query used when the UI
// API listing is unavailable.
func (c *Client) visibleCustomApplications(ctx context.Context, accessToken, instanceURL string) ([]Application, error) {
	query := "SELECT Id, Name, Label, NamespacePrefix FROM CustomApplication WHERE IsVisibleInAppLauncher = true"
	var records []customApplicationRecord
	if err := c.soqlQuery(ctx, c.listClient, "list custom applications", accessToken, instanceURL, query, &records); err != nil {
		return nil, err
	}
	apps := make([]Application, 0, len(records))
	for _, record := range records {
		label := record.Label
		if label == "" {
			label = record.Name
		}
		if label == "" {
			label = "Unknown App"
		}
		name := record.Name
		if name == "" {
			name = "Unknown"
		}
		apps = append(apps, describeAppEntry(record.ID, name, label, record.NamespacePrefix))
	}
	return apps, nil
}

// installedPackages lists subscriber packages so namespaces without a
// corresponding app still appear in the menu.
func (c *Client) installedPackages(ctx context.Context, accessToken, instanceURL string) ([]Application, error) {
	query := "SELECT Id, SubscriberPackageId, SubscriberPackage.NamespacePrefix, SubscriberPackage.Name FROM InstalledSubscriberPackage"
	var records []installedPackageRecord
	if err := c.soqlQuery(ctx, c.listClient, "list installed packages", accessToken, instanceURL, query, &records); err != nil {
		return nil, err
	}
	apps := make([]Application, 0, len(records))
	for _, record := range records {
		namespace := record.SubscriberPackage.NamespacePrefix
		if namespace == "" {
			continue
		}
		name := record.SubscriberPackage.Name
		if name == "" {
			name = "Unknown Package"
		}
		apps = append(apps, Application{
			ID:              record.ID,
			Name:            namespace,
			Label:           fmt.Sprintf("%s (%s)", name, namespace),
			NamespacePrefix: namespace,
			Description:     fmt.Sprintf("Objects from %s package", name),
		})
	}
	return apps, nil
}

func describeAppEntry(id, name, label, namespace string) Application {
	description := fmt.Sprintf("Objects from %s app", label)
	if namespace == "" {
		description = fmt.Sprintf("%s (Standard Objects - No Namespace Filter)", label)
	}
	return Application{ID: id, Name: name, Label: label, NamespacePrefix: namespace, Description: description}
}

func mergeByLabel(existing, incoming []Application) []Application {
	for _, candidate := range incoming {
		duplicate := false
		for _, app := range existing {
			if app.Label == candidate.Label {
				duplicate = true
				break
			}
		}
		if !duplicate {
			existing = append(existing, candidate)
		}
	}
	return existing
}

func mergeByNamespace(existing, incoming []Application) []Application {
	for _, candidate := range incoming {
		duplicate := false
		for _, app := range existing {
			if app.NamespacePrefix != "" && app.NamespacePrefix == candidate.NamespacePrefix {
				duplicate = true
				break
			}
		}
		if !duplicate {
			existing = append(existing, candidate)
		}
	}
	return existing
}
