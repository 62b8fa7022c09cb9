package render

import (
	"encoding/base64"
	"fmt"
	"strings"

	"client-onboarding/internal/models"
)

const attestationClause = "I HEREBY SWEAR OR AFFIRM THAT THE INFORMATION SET FORTH ABOVE AND ANY OTHER " +
	"DOCUMENTATION PROVIDED TO IBV FOR THE PURPOSE OF ESTABLISHING AN ACCOUNT WITH IBV GOLD IS TRUE, " +
	"ACCURATE AND COMPLETE."

// SignatureFallback replaces a signature image that cannot be decoded.
const SignatureFallback = "Digital signature on file"

const maxPEPEntries = 5

type section struct {
	title string
	keys  []string
	// when non-empty, the section is rendered only if one of these keys has a value
	requires []string
}

var bankingSection = section{
	title: "BANKING DETAILS",
	keys:  []string{"bankName", "accountHolder", "accountNumber", "branchCode", "swift"},
}

var individualSections = []section{
	{title: "APPLICANT DETAILS", keys: []string{"fullName", "idNumber", "mobile", "email", "residentialAddress", "residency"}},
	{
		title:    "PROFESSION DETAILS",
		keys:     []string{"employmentStatus", "employer", "occupation", "sourceOfFunds"},
		requires: []string{"employmentStatus", "employer"},
	},
	bankingSection,
	{title: "TRANSACTION INFORMATION", keys: []string{"transactionSize", "purpose"}, requires: []string{"transactionSize"}},
}

var businessSections = []section{
	{title: "REPRESENTATIVE DETAILS", keys: []string{"repFullName", "repIdNumber", "repMobile", "repEmail"}},
	{title: "ENTITY DETAILS", keys: []string{"entityName", "registrationNumber", "entityType", "registeredAddress"}},
	bankingSection,
}

// BuildClientInformation lays out the client information document.
func BuildClientInformation(sub *models.FormSubmission, folder, submissionDate string) *Document {
	doc := &Document{Name: models.ClientInformationFile}

	applicant := strings.ToUpper(models.ApplicantBusiness)
	sections := businessSections
	if sub.IsIndividual() {
		applicant = strings.ToUpper(models.ApplicantIndividual)
		sections = individualSections
	}

	doc.title("PRE-TRADE APPLICATION", 15)
	doc.subtitle(applicant)
	doc.spacer(12)
	doc.caption(fmt.Sprintf("Submission Date: %s     Client Folder: %s", submissionDate, folder))
	doc.spacer(14)

	for _, s := range sections {
		if len(s.requires) > 0 && sub.FirstField(s.requires...) == "" {
			continue
		}
		doc.heading(s.title, 10)
		doc.add(Block{Kind: BlockFields, Fields: collectFields(sub, s.keys)})
	}

	addPEPDeclaration(doc, sub)
	addAttestation(doc, sub)
	return doc
}

func collectFields(sub *models.FormSubmission, keys []string) []Field {
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		if v := sub.Field(k); v != "" {
			fields = append(fields, Field{Label: LabelFor(k), Value: v})
		}
	}
	return fields
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func addPEPDeclaration(doc *Document, sub *models.FormSubmission) {
	doc.heading("PEP DECLARATION", 10)
	summary := strings.Join([]string{
		"Foreign PEP: " + orDefault(sub.FirstField("pep_foreign", "foreignPep"), "No"),
		"Domestic PEP: " + orDefault(sub.FirstField("pep_domestic", "domesticPep"), "No"),
		"Prominent Person: " + orDefault(sub.FirstField("pep_prominent", "familyPep"), "No"),
	}, "  |  ")
	doc.text(summary)

	for i := 1; i <= maxPEPEntries; i++ {
		keys := []string{
			fmt.Sprintf("pep_position_%d", i),
			fmt.Sprintf("pep_organisation_%d", i),
			fmt.Sprintf("pep_relationship_%d", i),
			fmt.Sprintf("pep_period_%d", i),
		}
		if sub.FirstField(keys...) == "" {
			continue
		}
		fields := []Field{{Label: "PEP ENTRY", Value: fmt.Sprintf("%d", i)}}
		for _, k := range keys {
			if v := sub.Field(k); v != "" {
				label := strings.TrimSuffix(strings.TrimPrefix(k, "pep_"), fmt.Sprintf("_%d", i))
				fields = append(fields, Field{Label: LabelFor(label), Value: v})
			}
		}
		doc.add(Block{Kind: BlockFields, Fields: fields})
	}
	doc.spacer(8)
}

func addAttestation(doc *Document, sub *models.FormSubmission) {
	doc.heading("ATTESTATION", 10)
	doc.note(attestationClause, 7)
	doc.spacer(6)
	doc.add(Block{Kind: BlockLabeled, Size: 8, Fields: []Field{
		{Label: "Name", Value: orDefault(sub.Field("attestationName"), "N/A")},
		{Label: "Date", Value: orDefault(sub.Field("attestationDate"), "N/A")},
	}})

	if sub.SignatureData == "" {
		doc.labeled("Signature", orDefault(sub.Field("signature"), "N/A"), 8)
		return
	}

	doc.labeled("Signature", "", 8)
	img, err := DecodeSignature(sub.SignatureData)
	if err != nil {
		doc.text(SignatureFallback)
		return
	}
	doc.add(Block{Kind: BlockSignature, Image: img})
}

// DecodeSignature strips an optional data-URL prefix and decodes the base64
// payload. The result is validated and normalized as PNG.
func DecodeSignature(data string) ([]byte, error) {
	payload := strings.TrimSpace(data)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("decode signature: %w", err)
		}
	}
	return normalizePNG(raw)
}
