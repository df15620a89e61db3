package constants

// Payment sub-state, auxiliary to the order status
const PAYMENT_STATUS_PENDING = "PENDING"
const PAYMENT_STATUS_REVIEW = "REVIEW"
const PAYMENT_STATUS_APPROVED = "APPROVED"
const PAYMENT_STATUS_REJECTED = "REJECTED"

// User roles
const ROLE_USER = "USER"
const ROLE_ADMIN = "ADMIN"

// Product lifecycle
const PRODUCT_STATUS_ACTIVE = "ACTIVE"
const PRODUCT_STATUS_ARCHIVED = "ARCHIVED"

// Error responses
const PRODUCT_UNAVAILABLE = "product unavailable"
const INSUFFICIENT_STOCK = "insufficient stock"
const INVALID_TRANSITION = "invalid order state transition"
const HAS_ORDER_HISTORY = "product has order history"
const ORDER_NOT_FOUND = "order not found"
const USER_NOT_FOUND = "user not found"
const EMAIL_ALREADY_REGISTERED = "email already registered"
const ASSET_STORE_FAILURE = "failed to store payment slip"
const CREATE_ORDER_FAILED = "create order failed"
const CREATE_PRODUCT_FAILED = "create product failed"
