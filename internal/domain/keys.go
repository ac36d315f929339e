package domain

// KeyPrefix namespaces every key this service writes to the shared key-value store.
const KeyPrefix = "investlink:"
