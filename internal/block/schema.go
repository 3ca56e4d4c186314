package block

import "github.com/ethpandaops/era-indexer/internal/forks"

// bodySchema is the data-driven restatement of spec.md §9's "parser
// inheritance chain" redesign flag: a fork's schema is a plain value built
// by appending to its predecessor's, not a subclass.
type bodySchema struct {
	hasSyncAggregate     bool
	variableFieldsInOrder []variableFieldName
}

type variableFieldName int

const (
	fieldProposerSlashings variableFieldName = iota
	fieldAttesterSlashings
	fieldAttestations
	fieldDeposits
	fieldVoluntaryExits
	fieldExecutionPayload
	fieldBLSToExecutionChanges
	fieldBlobKZGCommitments
	fieldExecutionRequests
)

var baseVariableFields = []variableFieldName{
	fieldProposerSlashings,
	fieldAttesterSlashings,
	fieldAttestations,
	fieldDeposits,
	fieldVoluntaryExits,
}

var phase0Schema = bodySchema{
	hasSyncAggregate:      false,
	variableFieldsInOrder: append([]variableFieldName{}, baseVariableFields...),
}

var altairSchema = bodySchema{
	hasSyncAggregate:      true,
	variableFieldsInOrder: append([]variableFieldName{}, phase0Schema.variableFieldsInOrder...),
}

var bellatrixSchema = bodySchema{
	hasSyncAggregate:      true,
	variableFieldsInOrder: append(append([]variableFieldName{}, altairSchema.variableFieldsInOrder...), fieldExecutionPayload),
}

var capellaSchema = bodySchema{
	hasSyncAggregate:      true,
	variableFieldsInOrder: append(append([]variableFieldName{}, bellatrixSchema.variableFieldsInOrder...), fieldBLSToExecutionChanges),
}

var denebSchema = bodySchema{
	hasSyncAggregate:      true,
	variableFieldsInOrder: append(append([]variableFieldName{}, capellaSchema.variableFieldsInOrder...), fieldBlobKZGCommitments),
}

var electraSchema = bodySchema{
	hasSyncAggregate:      true,
	variableFieldsInOrder: append(append([]variableFieldName{}, denebSchema.variableFieldsInOrder...), fieldExecutionRequests),
}

func schemaForFork(fork forks.Fork) bodySchema {
	switch fork {
	case forks.Altair:
		return altairSchema
	case forks.Bellatrix:
		return bellatrixSchema
	case forks.Capella:
		return capellaSchema
	case forks.Deneb:
		return denebSchema
	case forks.Electra:
		return electraSchema
	default:
		return phase0Schema
	}
}
