// Package browser implements driven.RepositoryGateway over the CMIS 1.1
// browser binding (HTTP + JSON), as served by Alfresco at
// /alfresco/api/-default-/public/cmis/versions/1.1/browser.
//
// Reads are GET requests with a cmisselector; writes are form posts with a
// cmisaction. Requests are rate limited, and idempotent reads are retried
// with exponential backoff on transient failures.
package browser
