/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package badgerstore

import (
	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/storagemodels"
)

const (
	recordPrefix    = "r\x00"
	namespacePrefix = "n\x00"
	labelPrefix     = "l\x00"
	sep             = "\x00"
)

func recordKey(key string) []byte {
	return []byte(recordPrefix + key)
}

func namespaceScanPrefix(namespace string) string {
	return namespacePrefix + namespace + sep
}

func namespaceIndexKey(key string) []byte {
	ns, sk := keyexpr.Split(key)
	return []byte(namespaceScanPrefix(ns) + sk)
}

func labelScanPrefix(label storagemodels.Label, namespace string) string {
	return labelPrefix + string(label) + sep + namespace + sep
}

func labelIndexKey(label storagemodels.Label, expr, key string) []byte {
	ns, sk := keyexpr.Split(expr)
	return []byte(labelScanPrefix(label, ns) + sk + sep + key)
}
