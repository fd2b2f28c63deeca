package certificate

import "strings"

// Label keys used by the renderer. Every key belongs to the bilingual
// subset: the printed text is the primary-locale label joined with the
// English (or Spanish, for English primaries) label when the two differ,
// "Label A / Label B", so a certificate stays readable abroad.
const (
	labelTitle              = "title"
	labelHolderInfo         = "holderInfo"
	labelHolderInfoCont     = "holderInfoCont"
	labelPatientName        = "patientName"
	labelDocumentID         = "documentId"
	labelBirthDate          = "birthDate"
	labelCountry            = "country"
	labelCountryUnspecified = "countryUnspecified"
	labelNotApplicable      = "notApplicable"
	labelHistory            = "history"
	labelHistoryCont        = "historyCont"
	labelVaccine            = "vaccine"
	labelDose               = "dose"
	labelLot                = "lot"
	labelDate               = "date"
	labelPlace              = "place"
	labelProfessional       = "professional"
	labelIssuance           = "issuance"
	labelIssuedOn           = "issuedOn"
	labelVerificationCode   = "verificationCode"
	labelIssuingEntity      = "issuingEntity"
	labelIssuingEntityName  = "issuingEntityName"
	labelScanToVerify       = "scanToVerify"
	labelPageInfo           = "pageInfo"
	labelDisclaimer         = "disclaimer"
)

var translations = map[string]map[string]string{
	"es": {
		labelTitle:              "Certificado Internacional de Vacunación",
		labelHolderInfo:         "Información del Titular",
		labelHolderInfoCont:     "Información del Titular (cont.)",
		labelPatientName:        "Nombre:",
		labelDocumentID:         "Documento:",
		labelBirthDate:          "Fecha de Nacimiento:",
		labelCountry:            "País:",
		labelCountryUnspecified: "No especificado",
		labelNotApplicable:      "N/A",
		labelHistory:            "Historial de Vacunación",
		labelHistoryCont:        "Historial de Vacunación (cont.)",
		labelVaccine:            "Vacuna",
		labelDose:               "Dosis",
		labelLot:                "Lote",
		labelDate:               "Fecha",
		labelPlace:              "Lugar",
		labelProfessional:       "Profesional",
		labelIssuance:           "Emisión y Verificación",
		labelIssuedOn:           "Emitido el:",
		labelVerificationCode:   "Código de Verificación:",
		labelIssuingEntity:      "Entidad Emisora:",
		labelIssuingEntityName:  "Vacun.org",
		labelScanToVerify:       "Escanee para verificar",
		labelPageInfo:           "Página %d de %s",
		labelDisclaimer:         "Este certificado es un resumen del historial de vacunación registrado por el titular. No sustituye los registros oficiales de las autoridades sanitarias.",
	},
	"en": {
		labelTitle:              "International Vaccination Certificate",
		labelHolderInfo:         "Holder's Information",
		labelHolderInfoCont:     "Holder's Information (cont.)",
		labelPatientName:        "Name:",
		labelDocumentID:         "Document ID:",
		labelBirthDate:          "Date of Birth:",
		labelCountry:            "Country:",
		labelCountryUnspecified: "Not specified",
		labelNotApplicable:      "N/A",
		labelHistory:            "Vaccination History",
		labelHistoryCont:        "Vaccination History (cont.)",
		labelVaccine:            "Vaccine",
		labelDose:               "Dose",
		labelLot:                "Lot",
		labelDate:               "Date",
		labelPlace:              "Place",
		labelProfessional:       "Professional",
		labelIssuance:           "Issuance and Verification",
		labelIssuedOn:           "Issued on:",
		labelVerificationCode:   "Verification Code:",
		labelIssuingEntity:      "Issuing Entity:",
		labelIssuingEntityName:  "Vacun.org",
		labelScanToVerify:       "Scan to verify",
		labelPageInfo:           "Page %d of %s",
		labelDisclaimer:         "This certificate is a summary of the vaccination history recorded by the holder. It does not replace official health authority records.",
	},
	"pt": {
		labelTitle:              "Certificado Internacional de Vacinação",
		labelHolderInfo:         "Informação do Titular",
		labelHolderInfoCont:     "Informação do Titular (cont.)",
		labelPatientName:        "Nome:",
		labelDocumentID:         "Documento:",
		labelBirthDate:          "Data de Nascimento:",
		labelCountry:            "País:",
		labelCountryUnspecified: "Não especificado",
		labelNotApplicable:      "N/A",
		labelHistory:            "Histórico de Vacinação",
		labelHistoryCont:        "Histórico de Vacinação (cont.)",
		labelVaccine:            "Vacina",
		labelDose:               "Dose",
		labelLot:                "Lote",
		labelDate:               "Data",
		labelPlace:              "Local",
		labelProfessional:       "Profissional",
		labelIssuance:           "Emissão e Verificação",
		labelIssuedOn:           "Emitido em:",
		labelVerificationCode:   "Código de Verificação:",
		labelIssuingEntity:      "Entidade Emissora:",
		labelIssuingEntityName:  "Vacun.org",
		labelScanToVerify:       "Escaneie para verificar",
		labelPageInfo:           "Página %d de %s",
		labelDisclaimer:         "Este certificado é um resumo do histórico de vacinação registrado pelo titular. Não substitui os registros oficiais das autoridades de saúde.",
	},
}

// labelSet resolves labels for one primary locale plus its secondary
// fallback language.
type labelSet struct {
	primary   string
	secondary string
}

// newLabelSet normalizes a locale tag ("es-CO" -> "es"). Unknown locales
// fall back to English with Spanish as the secondary language; every other
// primary pairs with English.
func newLabelSet(locale string) labelSet {
	primary := strings.ToLower(locale)
	if i := strings.IndexAny(primary, "-_"); i > 0 {
		primary = primary[:i]
	}
	if _, ok := translations[primary]; !ok {
		primary = "en"
	}
	secondary := "en"
	if primary == "en" {
		secondary = "es"
	}
	return labelSet{primary: primary, secondary: secondary}
}

// get returns the bilingual form of a label: "primary / secondary" when the
// two languages differ, the primary text alone otherwise.
func (l labelSet) get(key string) string {
	p := translations[l.primary][key]
	s := translations[l.secondary][key]
	if s != "" && s != p {
		return p + " / " + s
	}
	return p
}

// primaryOnly returns the label in the primary language without the
// secondary suffix. Used where the bilingual form would not fit, such as
// the header subtitle which prints the secondary title on its own line.
func (l labelSet) primaryOnly(key string) string {
	return translations[l.primary][key]
}

// secondaryOnly returns the label in the secondary language.
func (l labelSet) secondaryOnly(key string) string {
	return translations[l.secondary][key]
}
