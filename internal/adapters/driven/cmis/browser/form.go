package browser

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"
	"strings"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// Browser binding form field names.
const (
	fieldAction        = "cmisaction"
	fieldObjectID      = "objectId"
	fieldSuccinct      = "succinct"
	fieldVersioning    = "versioningState"
	fieldOverwriteFlag = "overwriteFlag"
	fieldContent       = "content"
)

// Browser binding actions.
const (
	actionCreateFolder       = "createFolder"
	actionCreateDocument     = "createDocument"
	actionCreateItem         = "createItem"
	actionCreateRelationship = "createRelationship"
	actionUpdateProperties   = "update"
	actionSetContent         = "setContent"
)

// newForm returns the fields shared by every action.
func newForm(action string) url.Values {
	v := url.Values{}
	v.Set(fieldAction, action)
	v.Set(fieldSuccinct, "true")
	return v
}

// encodeProperties adds props as propertyId[i]/propertyValue[i] pairs in
// key order. With secondaryTypes, aspects on cmis:objectTypeId move to a
// multi-valued cmis:secondaryObjectTypeIds.
func encodeProperties(v url.Values, props domain.Properties, secondaryTypes bool) {
	single := props.Clone()
	multi := map[string][]string{}

	if secondaryTypes {
		if raw, ok := single[domain.PropObjectTypeID]; ok {
			if spec, err := domain.ParseTypeSpec(raw); err == nil && len(spec.Aspects) > 0 {
				single[domain.PropObjectTypeID] = spec.Primary
				multi[domain.PropSecondaryObjectTypeIDs] = spec.Aspects
			}
		}
		if raw, ok := single[domain.PropSecondaryObjectTypeIDs]; ok {
			delete(single, domain.PropSecondaryObjectTypeIDs)
			multi[domain.PropSecondaryObjectTypeIDs] = mergeUnique(
				multi[domain.PropSecondaryObjectTypeIDs], splitList(raw))
		}
	}

	keys := make([]string, 0, len(single)+len(multi))
	for k := range single {
		keys = append(keys, k)
	}
	for k := range multi {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		v.Set(fmt.Sprintf("propertyId[%d]", i), k)
		if values, ok := multi[k]; ok {
			for j, val := range values {
				v.Set(fmt.Sprintf("propertyValue[%d][%d]", i, j), val)
			}
			continue
		}
		v.Set(fmt.Sprintf("propertyValue[%d]", i), single[k])
	}
}

// multipartBody encodes fields plus a content part.
func multipartBody(fields url.Values, stream *domain.ContentStream) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields.Get(k)); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		fieldContent, quoteEscaper.Replace(stream.FileName)))
	h.Set("Content-Type", stream.MimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(stream.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
