package database

import (
	"context"
	"database/sql"
)

// schema holds the DDL for all tables, applied idempotently at
// startup.  Every table carries the shared audit columns (created_at,
// updated_at) and the soft-delete pair (is_deleted, deleted_at);
// repositories filter is_deleted explicitly on every read.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		last_login_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY ix_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		product_code VARCHAR(20) NOT NULL,
		product_name VARCHAR(200) NOT NULL,
		min_temperature DECIMAL(6,2) NOT NULL,
		max_temperature DECIMAL(6,2) NOT NULL,
		max_defrost_time_minutes INT NOT NULL,
		description VARCHAR(500) NULL,
		category VARCHAR(100) NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		UNIQUE KEY uq_products_code (product_code)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS forms (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		form_number VARCHAR(20) NOT NULL,
		destination VARCHAR(200) NOT NULL,
		defrost_date DATE NOT NULL,
		production_date DATE NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
		created_by_user_id BIGINT UNSIGNED NOT NULL,
		reviewed_by_user_id BIGINT UNSIGNED NULL,
		reviewed_at DATETIME NULL,
		review_notes TEXT NULL,
		created_by_signature MEDIUMTEXT NULL,
		reviewed_by_signature MEDIUMTEXT NULL,
		observations TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		UNIQUE KEY uq_forms_number (form_number),
		KEY ix_forms_created_at (created_at),
		CONSTRAINT fk_forms_creator FOREIGN KEY (created_by_user_id) REFERENCES users(id),
		CONSTRAINT fk_forms_reviewer FOREIGN KEY (reviewed_by_user_id) REFERENCES users(id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS records (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		form_id BIGINT UNSIGNED NOT NULL,
		car_number INT NOT NULL,
		product_code VARCHAR(20) NOT NULL,
		product_id BIGINT UNSIGNED NULL,
		product_temperature DECIMAL(6,2) NOT NULL,
		defrost_start_time VARCHAR(5) NULL,
		consumption_start_time VARCHAR(5) NULL,
		consumption_end_time VARCHAR(5) NULL,
		observations TEXT NULL,
		record_order INT NOT NULL DEFAULT 0,
		has_alert TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		KEY ix_records_form (form_id),
		CONSTRAINT fk_records_form FOREIGN KEY (form_id) REFERENCES forms(id) ON DELETE CASCADE,
		CONSTRAINT fk_records_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE SET NULL
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS alerts (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		form_id BIGINT UNSIGNED NOT NULL,
		record_id BIGINT UNSIGNED NULL,
		severity VARCHAR(10) NOT NULL,
		message VARCHAR(500) NOT NULL,
		temperature DECIMAL(6,2) NOT NULL,
		expected_min_temperature DECIMAL(6,2) NOT NULL,
		expected_max_temperature DECIMAL(6,2) NOT NULL,
		is_acknowledged TINYINT(1) NOT NULL DEFAULT 0,
		acknowledged_at DATETIME NULL,
		acknowledged_by_user_id BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		KEY ix_alerts_form (form_id),
		KEY ix_alerts_created_at (created_at),
		CONSTRAINT fk_alerts_form FOREIGN KEY (form_id) REFERENCES forms(id) ON DELETE CASCADE,
		CONSTRAINT fk_alerts_record FOREIGN KEY (record_id) REFERENCES records(id) ON DELETE CASCADE,
		CONSTRAINT fk_alerts_ack_user FOREIGN KEY (acknowledged_by_user_id) REFERENCES users(id)
	) ENGINE=InnoDB`,
}

// Migrate applies the schema statements in order.  Statements use
// IF NOT EXISTS so repeated startups are no-ops.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
