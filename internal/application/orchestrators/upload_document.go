package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// Consent decision values recorded before upload.
const (
	DecisionAccepted = "ACEPTADO"
	DecisionRejected = "RECHAZADO"
)

// Document upload errors.
var (
	ErrUnknownDocument    = errors.New("unknown document type")
	ErrDocumentNotInQueue = errors.New("document does not apply to this member's age bracket")
	ErrBadDecision        = errors.New("decision must be ACEPTADO or RECHAZADO")
	ErrEmptyPDF           = errors.New("accepted documents require the signed PDF")
)

// Document type identifiers accepted by the upload endpoint.
const (
	DocConsent  = "consentimiento"
	DocWhatsApp = "whatsapp"
	DocAdvert   = "publicidad"
	DocUnder14  = "menor14"
	Doc14to18   = "14-18"
)

// documentSpec ties a document type to its sheet column and stored filename.
type documentSpec struct {
	Stem string // filename prefix for the uploaded PDF
	Col  string // sheet column receiving the URL or decision
	Get  func(*member.Record) *string
}

var documentSpecs = map[string]documentSpec{
	DocConsent: {
		Stem: "Consentimiento Fines Promocionales",
		Col:  "URL PDF Consentimiento",
		Get:  func(r *member.Record) *string { return &r.DocConsentURL },
	},
	DocWhatsApp: {
		Stem: "Consentimiento WhatsApp",
		Col:  "URL Doc WhatsApp",
		Get:  func(r *member.Record) *string { return &r.DocWhatsAppURL },
	},
	DocAdvert: {
		Stem: "Documento tratamiento publicitario",
		Col:  "URL Doc Publicidad",
		Get:  func(r *member.Record) *string { return &r.DocAdvertURL },
	},
	DocUnder14: {
		Stem: "Consentimiento menor de 14",
		Col:  "URL Doc Menor14",
		Get:  func(r *member.Record) *string { return &r.DocUnder14URL },
	},
	Doc14to18: {
		Stem: "Consentimiento menor 14-18",
		Col:  "URL Doc 14-18",
		Get:  func(r *member.Record) *string { return &r.Doc14to18URL },
	},
}

// DocumentQueueFor returns the document types a member of the given age
// must resolve, in presentation order.
func DocumentQueueFor(age int) []string {
	switch {
	case age <= member.ChildMaxAge:
		return []string{DocWhatsApp, DocAdvert, DocUnder14}
	case age < 18:
		return []string{DocWhatsApp, DocAdvert, Doc14to18}
	default:
		return []string{DocWhatsApp, DocAdvert, DocConsent}
	}
}

// UploadDocumentInput carries one consent decision, with the signed PDF
// bytes when accepted.
type UploadDocumentInput struct {
	DNI      string
	DocType  string
	Decision string
	PDF      []byte
	Actor    string
}

// UploadDocumentDeps holds dependencies for ExecuteUploadDocument.
type UploadDocumentDeps struct {
	Syncer    MemberSyncer
	Documents DocumentStore
	Now       func() time.Time
}

// ExecuteUploadDocument records a consent decision for one document.
// PRE: DocType is in the member's age-bracket queue
// POST: Accepted documents are uploaded to the member's folder and the
// view URL stored; rejected documents clear the column
func ExecuteUploadDocument(ctx context.Context, input UploadDocumentInput, deps UploadDocumentDeps) (string, error) {
	spec, ok := documentSpecs[input.DocType]
	if !ok {
		return "", ErrUnknownDocument
	}
	if input.Decision != DecisionAccepted && input.Decision != DecisionRejected {
		return "", ErrBadDecision
	}

	records := deps.Syncer.Load(ctx)
	idx, err := member.FindByDNI(records, input.DNI)
	if err != nil {
		return "", err
	}
	rec := &records[idx]

	birth, err := time.ParseInLocation("2006-01-02", rec.BirthDate, madrid)
	if err == nil {
		age := member.Age(birth, nowIn(deps.Now))
		if !queueContains(DocumentQueueFor(age), input.DocType) {
			return "", ErrDocumentNotInQueue
		}
	}

	url := ""
	if input.Decision == DecisionAccepted {
		if len(input.PDF) == 0 {
			return "", ErrEmptyPDF
		}
		folderID, err := deps.Documents.EnsureMemberFolder(ctx, rec.Name, rec.Surname, rec.DNI)
		if err != nil {
			return "", err
		}
		filename := fmt.Sprintf("%s_%s.pdf", spec.Stem, rec.DNI)
		url, err = deps.Documents.UploadPDF(ctx, folderID, filename, input.PDF)
		if err != nil {
			return "", err
		}
	}
	*spec.Get(rec) = url

	if err := deps.Syncer.Save(ctx, records); err != nil {
		return "", err
	}
	deps.Syncer.LogAction(ctx, input.Actor, audit.ActionEdit, rec.DNI,
		fmt.Sprintf("%s: %s", spec.Col, input.Decision))
	return url, nil
}

func queueContains(queue []string, docType string) bool {
	for _, d := range queue {
		if d == docType {
			return true
		}
	}
	return false
}
