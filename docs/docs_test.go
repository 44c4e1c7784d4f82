package docs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocRenders(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("ReadDoc: %v", err)
	}
	if !json.Valid([]byte(doc)) {
		t.Fatalf("rendered doc is not valid JSON:\n%s", doc)
	}
	for _, path := range []string{"/api/v1/state", "/api/v1/control/toggle", "/api/v1/edit/{field}/commit"} {
		if !strings.Contains(doc, `"`+path+`"`) {
			t.Errorf("doc is missing %s", path)
		}
	}
	if !strings.Contains(doc, `"title": "Soak Console API"`) {
		t.Errorf("doc title not rendered")
	}
}
