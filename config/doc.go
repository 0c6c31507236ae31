/*
Package config loads modelstore settings from a YAML file, .env files and the environment.

	engine: redis
	logLevel: debug
	maxShadowKeys: 5
	redis:
	  addr: localhost:6379
	  prefix: app

Environment variables win over the file. They use the names the DynamoDB tooling already
reads (AWS_ACCESS_KEY, AWS_SECRET_KEY, AWS_REGION, AWS_DDB_TABLE, AWS_DDB_ENDPOINT) plus
REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, BADGER_PATH, MODELSTORE_ENGINE and MODELSTORE_LOG_LEVEL.
*/
package config
