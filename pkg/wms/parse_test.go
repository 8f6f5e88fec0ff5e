package wms

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/terrabrasilis/wmscap/pkg/errors"
)

func loadFixture(t *testing.T) *Capabilities {
	t.Helper()
	data, err := os.ReadFile("testdata/capabilities.xml")
	if err != nil {
		t.Fatal(err)
	}
	caps, err := Parse(string(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return caps
}

func TestParse(t *testing.T) {
	caps := loadFixture(t)

	if caps.Version != "1.3.0" {
		t.Errorf("Version = %q, want 1.3.0", caps.Version)
	}
	if caps.Service.Title != "Deforestation Monitoring" {
		t.Errorf("Service.Title = %q", caps.Service.Title)
	}
	if caps.Service.OnlineResource == nil || caps.Service.OnlineResource.Href != "http://maps.example.org/geoserver/wms" {
		t.Errorf("Service.OnlineResource = %+v, want xlink:href decoded", caps.Service.OnlineResource)
	}
	if got := len(caps.Service.KeywordList.Keyword); got != 2 {
		t.Errorf("len(Keyword) = %d, want 2", got)
	}
	if caps.Service.MaxWidth != 4096 {
		t.Errorf("MaxWidth = %d, want 4096", caps.Service.MaxWidth)
	}

	req := caps.Capability.Request
	if req == nil || req.GetMap == nil || len(req.GetMap.Format) != 2 {
		t.Fatalf("GetMap formats not decoded: %+v", req)
	}
	if req.GetCapabilities.DCPType[0].HTTP.Post == nil {
		t.Error("GetCapabilities Post endpoint missing")
	}

	root := caps.Capability.Layer
	if root == nil {
		t.Fatal("root layer missing")
	}
	if len(root.CRS) != 2 {
		t.Errorf("root CRS = %v, want 2 entries", root.CRS)
	}
	if root.GeographicBoundingBox == nil || root.GeographicBoundingBox.NorthBoundLatitude != 5.5 {
		t.Errorf("EX_GeographicBoundingBox = %+v", root.GeographicBoundingBox)
	}
	if len(root.Layer) != 2 {
		t.Fatalf("nested layers = %d, want 2", len(root.Layer))
	}

	first := root.Layer[0]
	if !first.Queryable || first.Opaque {
		t.Errorf("attributes queryable=%v opaque=%v", first.Queryable, first.Opaque)
	}
	if first.Dimension[0].Name != "time" || first.Dimension[0].Default != "current" {
		t.Errorf("Dimension = %+v", first.Dimension[0])
	}
	if first.Style[0].LegendURL[0].Width != 20 {
		t.Errorf("LegendURL width = %d, want 20", first.Style[0].LegendURL[0].Width)
	}
	if d := root.Layer[1].MinScaleDenominator; d == nil || *d != 1000 {
		t.Errorf("MinScaleDenominator = %v, want 1000", d)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{"malformed", `<WMS_Capabilities><Service>`, ""},
		{"empty", ``, ""},
		{"wrong root", `<WMT_MS_Capabilities version="1.1.1"/>`, "WMS_Capabilities"},
		{"wrong namespace", `<WMS_Capabilities xmlns="http://example.org/other"/>`, "namespace"},
		{
			"exception report",
			`<ServiceExceptionReport version="1.3.0" xmlns="http://www.opengis.net/ogc">
  <ServiceException code="LayerNotDefined">unknown layer</ServiceException>
</ServiceExceptionReport>`,
			"LayerNotDefined: unknown layer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.xml)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeParse) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeParse)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParse_NoNamespace(t *testing.T) {
	caps, err := Parse(`<WMS_Capabilities version="1.3.0"><Capability><Layer><Title>t</Title></Layer></Capability></WMS_Capabilities>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if caps.Capability.Layer.Title != "t" {
		t.Errorf("Title = %q, want t", caps.Capability.Layer.Title)
	}
}

func TestParse_ISO88591(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<WMS_Capabilities xmlns=\"http://www.opengis.net/wms\" version=\"1.3.0\">" +
		"<Service><Name>WMS</Name><Title>Servi\xe7o</Title></Service>" +
		"</WMS_Capabilities>"

	caps, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if caps.Service.Title != "Serviço" {
		t.Errorf("Title = %q, want %q", caps.Service.Title, "Serviço")
	}
}

func TestCapabilities_JSON(t *testing.T) {
	caps := loadFixture(t)

	data, err := caps.JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var doc struct {
		WMSCapabilities struct {
			Capability struct {
				Layer struct {
					Layer []struct {
						Dimension []struct {
							Value string `json:"value"`
						} `json:"dimension"`
					} `json:"layer"`
				} `json:"layer"`
			} `json:"capability"`
		} `json:"WMS_Capabilities"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	got := doc.WMSCapabilities.Capability.Layer.Layer[0].Dimension[0].Value
	want := "2020-01-01T00:00:00Z,2020-01-02T00:00:00Z"
	if got != want {
		t.Errorf("capability.layer.layer[0].dimension[0].value = %q, want %q", got, want)
	}
}

func TestCapabilities_FindLayer(t *testing.T) {
	caps := loadFixture(t)

	if l := caps.FindLayer("base:states"); l == nil || l.Title != "States" {
		t.Errorf("FindLayer(base:states) = %+v", l)
	}
	if l := caps.FindLayer("missing"); l != nil {
		t.Errorf("FindLayer(missing) = %+v, want nil", l)
	}

	var nilCaps *Capabilities
	if l := nilCaps.FindLayer("x"); l != nil {
		t.Error("FindLayer on nil document should return nil")
	}
}

func TestCapabilities_Walk(t *testing.T) {
	caps := loadFixture(t)

	var depths []int
	caps.Walk(func(_ *Layer, depth int) bool {
		depths = append(depths, depth)
		return true
	})
	if len(depths) != 3 || depths[0] != 0 || depths[1] != 1 || depths[2] != 1 {
		t.Errorf("Walk depths = %v, want [0 1 1]", depths)
	}
}
