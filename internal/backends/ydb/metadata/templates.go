package metadata

import (
	"strings"
	"text/template"

	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// TemplateConfig holds values substituted into YQL templates.
type TemplateConfig struct {
	TablePathPrefix string
	TableName       string
	ColumnName      string
}

var (
	// SelectMetadataTmpl reads all collection metadata records.
	SelectMetadataTmpl = template.Must(template.New("selectMetadata").Parse(`
PRAGMA TablePathPrefix("{{ .TablePathPrefix }}");

SELECT {{ .ColumnName }} FROM ` + "`{{ .TableName }}`" + `;
`))

	// UpsertMetadataTmpl stores a single collection metadata record.
	UpsertMetadataTmpl = template.Must(template.New("upsertMetadata").Parse(`
PRAGMA TablePathPrefix("{{ .TablePathPrefix }}");

DECLARE $f_id AS String;
DECLARE $f_json AS JsonDocument;

UPSERT INTO ` + "`{{ .TableName }}`" + ` (id, {{ .ColumnName }}) VALUES ($f_id, $f_json);
`))

	// DeleteMetadataTmpl removes a single collection metadata record.
	DeleteMetadataTmpl = template.Must(template.New("deleteMetadata").Parse(`
PRAGMA TablePathPrefix("{{ .TablePathPrefix }}");

DECLARE $f_id AS String;

DELETE FROM ` + "`{{ .TableName }}`" + ` WHERE id = $f_id;
`))

	// DeleteDocumentsTmpl removes documents by id and returns the number of deleted rows.
	DeleteDocumentsTmpl = template.Must(template.New("deleteDocuments").Parse(`
PRAGMA TablePathPrefix("{{ .TablePathPrefix }}");

DECLARE $f_ids AS List<String>;

$to_delete = (
	SELECT id FROM ` + "`{{ .TableName }}`" + ` WHERE id IN $f_ids
);

$count = (
	SELECT COUNT(*) AS deleted_count FROM $to_delete
);

DELETE FROM ` + "`{{ .TableName }}`" + ` ON SELECT * FROM $to_delete;

SELECT deleted_count FROM $count;
`))

	// InsertDocumentsTmpl inserts documents, failing on existing ids.
	InsertDocumentsTmpl = template.Must(template.New("insertDocuments").Parse(writeDocuments("INSERT")))

	// UpsertDocumentsTmpl inserts or replaces documents.
	UpsertDocumentsTmpl = template.Must(template.New("upsertDocuments").Parse(writeDocuments("UPSERT")))
)

// writeDocuments returns template text for writing a list of document rows.
func writeDocuments(verb string) string {
	return `
PRAGMA TablePathPrefix("{{ .TablePathPrefix }}");

DECLARE $f_data AS List<Struct<id: String, created_at: Int64, {{ .ColumnName }}: JsonDocument>>;

` + verb + ` INTO ` + "`{{ .TableName }}`" + `
SELECT id, created_at, {{ .ColumnName }} FROM AS_TABLE($f_data);
`
}

// Render executes the template with the given config.
func Render(tmpl *template.Template, cfg TemplateConfig) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, cfg); err != nil {
		return "", lazyerrors.Error(err)
	}

	return sb.String(), nil
}
