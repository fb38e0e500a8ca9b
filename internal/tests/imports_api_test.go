package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tealeg/xlsx/v3"

	"asset-tracker-api/internal"
	"asset-tracker-api/internal/models"
	"asset-tracker-api/pkg/importer"
)

func assetWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Assets")
	if err != nil {
		t.Fatalf("Failed to add sheet: %v", err)
	}

	header := sheet.AddRow()
	for _, h := range []string{"Asset ID", "Asset Name", "Tracker ID"} {
		header.AddCell().SetString(h)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

func uploadExcel(t *testing.T, srv *internal.Server, token string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", "assets.xlsx")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write file part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/imports/excel", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func TestExcelImportEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	token := adminToken(t, srv)

	content := assetWorkbook(t, [][]string{
		{"A1", "Truck", "T1"},
		{"A2", "Crane", ""},
	})

	w := uploadExcel(t, srv, token, content, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data importer.ImportSummary `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode import summary: %v", err)
	}
	if resp.Data.Created != 2 {
		t.Errorf("Expected 2 created, got %d", resp.Data.Created)
	}

	// Imported rows are visible through the read API.
	list := doJSON(srv, "GET", "/assets", token, nil)
	var assetList struct {
		Data []models.Asset `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(list.Body).Decode(&assetList); err != nil {
		t.Fatalf("Failed to decode asset list: %v", err)
	}
	if assetList.Meta.Total != 2 {
		t.Errorf("Expected 2 assets after import, got %d", assetList.Meta.Total)
	}

	links := doJSON(srv, "GET", "/links", token, nil)
	var linkList struct {
		Data []models.Link `json:"data"`
	}
	if err := json.NewDecoder(links.Body).Decode(&linkList); err != nil {
		t.Fatalf("Failed to decode link list: %v", err)
	}
	if len(linkList.Data) != 1 || linkList.Data[0].TrackerID != "T1" {
		t.Errorf("Expected one A1-T1 link from import, got %+v", linkList.Data)
	}
}

func TestExcelImportDryRunEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	token := adminToken(t, srv)

	content := assetWorkbook(t, [][]string{{"A1", "Truck", ""}})

	w := uploadExcel(t, srv, token, content, map[string]string{"dry_run": "true"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	list := doJSON(srv, "GET", "/assets", token, nil)
	var assetList struct {
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(list.Body).Decode(&assetList); err != nil {
		t.Fatalf("Failed to decode asset list: %v", err)
	}
	if assetList.Meta.Total != 0 {
		t.Errorf("Expected dry run to persist nothing, got %d assets", assetList.Meta.Total)
	}
}

func TestExcelImportRequiresAdmin(t *testing.T) {
	srv := newTestServer(t)
	viewer := viewerToken(t, srv)

	content := assetWorkbook(t, [][]string{{"A1", "Truck", ""}})
	w := uploadExcel(t, srv, viewer, content, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for viewer import, got %d", w.Code)
	}
}
