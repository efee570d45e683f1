// Package migrations はスキーマ定義のSQLファイルを埋め込んで提供する。
//
// 各ファイルは1文のみとし、MySQL と SQLite の両方で実行できるDDLで書く。
// ENUM やテーブルオプションは使わず、値の制約は CHECK で表す。
package migrations

import "embed"

// FS は {version}_{name}.sql 形式のマイグレーションファイル群。
//
//go:embed *.sql
var FS embed.FS
