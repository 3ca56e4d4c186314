// Package loader coerces normalized rows into positional tuples and bulk
// inserts them into the store in adaptively-sized batches, per spec.md §4.7.
package loader

// columnClass drives which coercion rule (§4.7) a column uses.
type columnClass int

const (
	classString columnClass = iota
	classNumeric
	classTimestamp
)

type column struct {
	name  string
	class columnClass
}

func numeric(name string) column   { return column{name, classNumeric} }
func str(name string) column       { return column{name, classString} }
func timestamp(name string) column { return column{name, classTimestamp} }

// schemas lists the canonical column order per dataset, verbatim from
// spec.md §6.
var schemas = map[string][]column{
	"blocks": {
		numeric("slot"), numeric("proposer_index"), str("parent_root"), str("state_root"),
		str("signature"), str("version"), timestamp("timestamp_utc"), str("randao_reveal"),
		str("graffiti"), str("eth1_deposit_root"), numeric("eth1_deposit_count"), str("eth1_block_hash"),
	},
	"sync_aggregates": {
		numeric("slot"), str("sync_committee_bits"), str("sync_committee_signature"),
		timestamp("timestamp_utc"), numeric("participating_validators"),
	},
	"execution_payloads": {
		numeric("slot"), str("parent_hash"), str("fee_recipient"), str("state_root"),
		str("receipts_root"), str("logs_bloom"), str("prev_randao"), numeric("block_number"),
		numeric("gas_limit"), numeric("gas_used"), timestamp("timestamp_utc"), str("base_fee_per_gas"),
		str("block_hash"), numeric("blob_gas_used"), numeric("excess_blob_gas"), str("extra_data"),
	},
	"transactions": {
		numeric("slot"), numeric("block_number"), str("block_hash"), numeric("transaction_index"),
		str("transaction_hash"), str("fee_recipient"), numeric("gas_limit"), numeric("gas_used"),
		str("base_fee_per_gas"), timestamp("timestamp_utc"),
	},
	"withdrawals": {
		numeric("slot"), numeric("block_number"), str("block_hash"), numeric("withdrawal_index"),
		numeric("validator_index"), str("address"), numeric("amount"), timestamp("timestamp_utc"),
	},
	"attestations": {
		numeric("slot"), numeric("attestation_index"), str("aggregation_bits"), str("signature"),
		numeric("attestation_slot"), numeric("committee_index"), str("beacon_block_root"),
		numeric("source_epoch"), str("source_root"), numeric("target_epoch"), str("target_root"),
		timestamp("timestamp_utc"),
	},
	"deposits": {
		numeric("slot"), numeric("deposit_index"), str("pubkey"), str("withdrawal_credentials"),
		numeric("amount"), str("signature"), str("proof"), timestamp("timestamp_utc"),
	},
	"voluntary_exits": {
		numeric("slot"), numeric("exit_index"), str("signature"), numeric("epoch"),
		numeric("validator_index"), timestamp("timestamp_utc"),
	},
	"proposer_slashings": {
		numeric("slot"), numeric("slashing_index"),
		numeric("header_1_slot"), numeric("header_1_proposer_index"), str("header_1_parent_root"),
		str("header_1_state_root"), str("header_1_body_root"), str("header_1_signature"),
		numeric("header_2_slot"), numeric("header_2_proposer_index"), str("header_2_parent_root"),
		str("header_2_state_root"), str("header_2_body_root"), str("header_2_signature"),
		timestamp("timestamp_utc"),
	},
	"attester_slashings": {
		numeric("slot"), numeric("slashing_index"),
		numeric("att_1_slot"), numeric("att_1_committee_index"), str("att_1_beacon_block_root"),
		numeric("att_1_source_epoch"), str("att_1_source_root"), numeric("att_1_target_epoch"),
		str("att_1_target_root"), str("att_1_signature"), str("att_1_attesting_indices"),
		numeric("att_1_validator_count"),
		numeric("att_2_slot"), numeric("att_2_committee_index"), str("att_2_beacon_block_root"),
		numeric("att_2_source_epoch"), str("att_2_source_root"), numeric("att_2_target_epoch"),
		str("att_2_target_root"), str("att_2_signature"), str("att_2_attesting_indices"),
		numeric("att_2_validator_count"),
		timestamp("timestamp_utc"), numeric("total_slashed_validators"),
	},
	"bls_changes": {
		numeric("slot"), numeric("change_index"), str("signature"), numeric("validator_index"),
		str("from_bls_pubkey"), str("to_execution_address"), timestamp("timestamp_utc"),
	},
	"blob_commitments": {
		numeric("slot"), numeric("commitment_index"), str("commitment"), timestamp("timestamp_utc"),
	},
	"execution_requests": {
		numeric("slot"), str("request_type"), numeric("request_index"), str("pubkey"),
		str("withdrawal_credentials"), numeric("amount"), str("signature"),
		numeric("deposit_request_index"), str("source_address"), str("validator_pubkey"),
		str("source_pubkey"), str("target_pubkey"), timestamp("timestamp_utc"),
	},
}

// ColumnNames returns dataset's canonical column order.
func ColumnNames(dataset string) []string {
	cols := schemas[dataset]
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}
