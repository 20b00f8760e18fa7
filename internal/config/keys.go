package config

// Etcd server hostname, used by the read-only action/auth metadata store.
const ETCD_ADDRESS = "etcd.address"

// Forces runtime container images to be pulled the first time they are used,
// even if they are locally available (true/false).
const FACTORY_REFRESH_IMAGES = "factory.images.refresh"

// Amount of memory available for the containers pool (in MB)
const POOL_MEMORY_MB = "containers.pool.memory"

// CPUs available for the containers pool (1.0 = 1 core)
const POOL_CPUS = "containers.pool.cpus"

// Which container runtime backend to use: "docker" or "podman".
const DEFAULT_CONTAINER_MANAGER = "default.container.manager"

// Unix socket (or URI) used to reach the local Podman service, when selected.
const PODMAN_SOCKET = "podman.socket"

// Docker endpoint of the invoker's own host. Not read by the current
// backends: the Docker backend takes its endpoint from the environment
// (client.FromEnv).
const SELF_DOCKER_ENDPOINT = "selfDockerEndpoint"

// Tag appended to runtime image names when pulling/building locally.
const DOCKER_IMAGE_TAG = "dockerImageTag"

// Docker network joined by action containers the Docker backend creates
// (default "bridge"). The Podman backend does not read it.
const INVOKER_CONTAINER_NETWORK = "invokerContainerNetwork"

// HTTP port the dispatcher listens on.
const API_PORT = "api.port"

// Whether to expose a Prometheus /metrics endpoint.
const METRICS_ENABLED = "metrics.enabled"

// Pool tunables (see containerpool.Config).
const GC_THRESHOLD = "pool.gcThreshold"
const GC_INTERVAL = "pool.gcInterval"
const MAX_IDLE = "pool.maxIdle"
const MAX_ACTIVE = "pool.maxActive"
const LOG_DIR = "pool.logDir"
const TEARDOWN_DELAY = "pool.teardownDelay"
const QUARANTINE_ON_INIT_FAILURE = "pool.quarantineOnInitFailure"
const ACTION_NAME_PREFIX = "pool.actionNamePrefix"

// Invoker identity. INVOKER_INSTANCE is stamped into container names;
// EDGE_HOST and WHISK_VERSION are not read anywhere, and containers are
// created without any invoker-supplied environment variables.
const INVOKER_INSTANCE = "invoker.instance"
const EDGE_HOST = "invoker.edgeHost"
const WHISK_VERSION = "invoker.whiskVersion"

// Deadline the dispatcher applies around a single run request.
const DISPATCHER_REQUEST_TIMEOUT = "dispatcher.requestTimeout"

// Action/auth metadata cache sizing.
const CACHE_SIZE = "cache.size"
const CACHE_CLEANUP_INTERVAL = "cache.cleanupInterval"
const CACHE_ITEM_EXPIRATION = "cache.itemExpiration"
