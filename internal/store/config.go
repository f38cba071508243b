package store

import (
	"context"

	"github.com/GonzoDMX/modextract/internal/config"
)

// Config reads the key/value configuration table.
func (d *DB) Config(ctx context.Context) (map[string]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		kv[k] = v
	}
	return kv, rows.Err()
}

// State returns the stamped model state for compatibility checks.
func (d *DB) State(ctx context.Context) (config.DBState, error) {
	kv, err := d.Config(ctx)
	if err != nil {
		return config.DBState{}, err
	}
	return config.DBState{
		ClassifierID:      kv["classifier_model_id"],
		ClassifierVersion: kv["classifier_model_version"],
		TokenizerID:       kv["tokenizer_model_id"],
		LabelSet:          kv["label_set"],
	}, nil
}
